//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audio-trimmer/cmd"
	"audio-trimmer/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	loadErr    error
	cmdErr     error
	output     *bytes.Buffer
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedConfigContext.tempDir != "" {
			os.RemoveAll(SharedConfigContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, noConfigurationFileExists)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^I attempt to load the configuration$`, iAttemptToLoadTheConfiguration)
	ctx.Step(`^the setting "([^"]*)" should be "([^"]*)"$`, theSettingShouldBe)
	ctx.Step(`^I should receive an error about missing configuration$`, iShouldReceiveAnErrorAboutMissingConfiguration)
	ctx.Step(`^I should receive a configuration error mentioning "([^"]*)"$`, iShouldReceiveAConfigurationErrorMentioning)
	ctx.Step(`^I run config show$`, iRunConfigShow)
	ctx.Step(`^I run config set "([^"]*)" to "([^"]*)"$`, iRunConfigSet)
	ctx.Step(`^the config command should succeed$`, theConfigCommandShouldSucceed)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, theConfigCommandShouldFailWith)
	ctx.Step(`^the config output should contain "([^"]*)"$`, theConfigOutputShouldContain)
}

func aConfigurationFileContaining(doc *godog.DocString) error {
	c := SharedConfigContext
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func noConfigurationFileExists() error {
	return nil
}

func iLoadTheConfiguration() error {
	c := SharedConfigContext
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func iAttemptToLoadTheConfiguration() error {
	c := SharedConfigContext
	c.cfg, c.loadErr = config.Load(c.configPath)
	return nil
}

func theSettingShouldBe(key, expected string) error {
	c := SharedConfigContext
	cfg := c.cfg
	if cfg == nil {
		// Reload what the last command saved
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	got, err := config.NewConfigManager(cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func iShouldReceiveAnErrorAboutMissingConfiguration() error {
	if SharedConfigContext.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	return nil
}

func iShouldReceiveAConfigurationErrorMentioning(text string) error {
	err := SharedConfigContext.loadErr
	if err == nil {
		return fmt.Errorf("expected an error mentioning %q but got none", text)
	}
	if !strings.Contains(err.Error(), text) {
		return fmt.Errorf("expected error mentioning %q, got %q", text, err.Error())
	}
	return nil
}

func loadedConfig() (*config.Config, error) {
	c := SharedConfigContext
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func iRunConfigShow() error {
	c := SharedConfigContext
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	c.cmdErr = cmd.RunConfigShowWithDependencies(cfg, c.configPath, c.output)
	return nil
}

func iRunConfigSet(key, value string) error {
	c := SharedConfigContext
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	c.cmdErr = cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, c.output)
	return nil
}

func theConfigCommandShouldSucceed() error {
	if err := SharedConfigContext.cmdErr; err != nil {
		return fmt.Errorf("expected success, got %v", err)
	}
	return nil
}

func theConfigCommandShouldFailWith(text string) error {
	err := SharedConfigContext.cmdErr
	if err == nil {
		return fmt.Errorf("expected error containing %q, got none", text)
	}
	if !strings.Contains(err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, err.Error())
	}
	return nil
}

func theConfigOutputShouldContain(text string) error {
	out := SharedConfigContext.output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, out)
	}
	return nil
}
