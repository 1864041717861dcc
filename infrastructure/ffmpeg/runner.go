package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	// Output runs the command with stdin as input and returns its stdout
	Output(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)

	// Start launches a long-running command with piped stdin and stdout
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// Process is a running command whose stdin and stdout are pipes
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	// Wait waits for the process to exit; stdout must be fully read first
	Wait() error
	// Kill terminates the process immediately
	Kill() error
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, withStderr(err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Start implements CommandRunner
func (r *ExecCommandRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	p := &execProcess{cmd: cmd, stdin: stdin, stdout: stdout}
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr bytes.Buffer
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return withStderr(err, p.stderr.String())
	}
	return nil
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func withStderr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	return fmt.Errorf("%w\nstderr: %s", err, stderr)
}

// verifyInstalled checks that a binary answers to -version
func verifyInstalled(ctx context.Context, runner CommandRunner, path string) error {
	if _, err := runner.Output(ctx, nil, path, "-version"); err != nil {
		return fmt.Errorf("%s not found or not executable: %w", path, err)
	}
	return nil
}
