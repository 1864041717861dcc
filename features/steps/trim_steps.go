//go:build integration

package steps

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"audio-trimmer/application/packaging"
	apptrim "audio-trimmer/application/trim"
	"audio-trimmer/cmd"
	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"
	"audio-trimmer/domain/export"
	"audio-trimmer/infrastructure/archive"

	"github.com/cucumber/godog"
)

// trimContext holds test state for trim scenarios
type trimContext struct {
	seconds     string
	concurrency int
	zip         bool
	retry       bool
	paths       []string
	files       map[string]batch.Input
	decoder     *syntheticDecoder
	encoders    *recordingEncoders
	exporter    *memoryExporter
	output      *bytes.Buffer
	err         error
}

// SharedTrimContext is reset before each scenario via Before hook
var SharedTrimContext *trimContext

func getTrimContext() *trimContext {
	return SharedTrimContext
}

func InitializeTrimScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedTrimContext = &trimContext{
			seconds:     "5",
			concurrency: 1,
			files:       make(map[string]batch.Input),
			decoder:     newSyntheticDecoder(),
			encoders:    &recordingEncoders{},
			exporter:    newMemoryExporter(),
			output:      &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.Step(`^a trim duration of "([^"]*)"$`, func(s string) error {
		getTrimContext().seconds = s
		return nil
	})
	ctx.Step(`^a concurrency of (\d+)$`, func(n int) error {
		getTrimContext().concurrency = n
		return nil
	})
	ctx.Step(`^an MP3 file "([^"]*)" with (\d+) Hz (mono|stereo) audio lasting (\d+(?:\.\d+)?) seconds$`, aSyntheticMP3File)
	ctx.Step(`^a corrupt MP3 file "([^"]*)"$`, aCorruptMP3File)
	ctx.Step(`^a text file "([^"]*)"$`, aTextFile)
	ctx.Step(`^the file "([^"]*)" is listed twice$`, theFileIsListedTwice)
	ctx.Step(`^decoding "([^"]*)" fails the first time$`, decodingFailsTheFirstTime)
	ctx.Step(`^I request a zip archive$`, func() error {
		getTrimContext().zip = true
		return nil
	})
	ctx.Step(`^I request failed files to be retried$`, func() error {
		getTrimContext().retry = true
		return nil
	})
	ctx.Step(`^I run the trim command$`, iRunTheTrimCommand)
	ctx.Step(`^the trim command should succeed$`, theTrimCommandShouldSucceed)
	ctx.Step(`^the trim command should fail with "([^"]*)"$`, theTrimCommandShouldFailWith)
	ctx.Step(`^the output should contain "([^"]*)"$`, theTrimOutputShouldContain)
	ctx.Step(`^"([^"]*)" should be saved$`, fileShouldBeSaved)
	ctx.Step(`^"([^"]*)" should not be saved$`, fileShouldNotBeSaved)
	ctx.Step(`^(\d+) files? should have been encoded$`, filesShouldHaveBeenEncoded)
	ctx.Step(`^the encoder should have received (\d+) samples per channel$`, theEncoderShouldHaveReceivedSamples)
	ctx.Step(`^the encoder should have been opened with (\d+) channels? at (\d+) Hz and (\d+) kbps$`, theEncoderShouldHaveBeenOpenedWith)
	ctx.Step(`^every block except the last should hold 1152 samples$`, everyBlockExceptTheLastShouldHold1152Samples)
	ctx.Step(`^every encoder should have been flushed$`, everyEncoderShouldHaveBeenFlushed)
	ctx.Step(`^the first encoded sample should be source sample (\d+)$`, theFirstEncodedSampleShouldBeSourceSample)
	ctx.Step(`^the archive should contain "([^"]*)"$`, theArchiveShouldContain)
	ctx.Step(`^the archive should contain (\d+) entries$`, theArchiveShouldContainEntries)
	ctx.Step(`^"([^"]*)" should match the output of trimming "([^"]*)" on its own$`, outputShouldMatchTrimmingAlone)
	ctx.Step(`^"([^"]*)" should have been decoded (\d+) times?$`, fileShouldHaveBeenDecoded)
}

func (t *trimContext) addFile(name string, data []byte, contentType string) {
	t.files[name] = batch.Input{
		Name:        name,
		ModTime:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		ContentType: contentType,
		Data:        data,
	}
	t.paths = append(t.paths, name)
}

func aSyntheticMP3File(name string, rate int, layout string, seconds float64) error {
	channels := 1
	if layout == "stereo" {
		channels = 2
	}
	getTrimContext().addFile(name, syntheticData(rate, channels, seconds), audio.MimeTypeMP3)
	return nil
}

func aCorruptMP3File(name string) error {
	getTrimContext().addFile(name, []byte("garbage"), audio.MimeTypeMP3)
	return nil
}

func aTextFile(name string) error {
	getTrimContext().addFile(name, []byte("notes"), "text/plain; charset=utf-8")
	return nil
}

func theFileIsListedTwice(name string) error {
	t := getTrimContext()
	if _, ok := t.files[name]; !ok {
		return fmt.Errorf("file %q was not declared", name)
	}
	t.paths = append(t.paths, name)
	return nil
}

func decodingFailsTheFirstTime(name string) error {
	t := getTrimContext()
	in, ok := t.files[name]
	if !ok {
		return fmt.Errorf("file %q was not declared", name)
	}
	t.decoder.failOnce[string(in.Data)] = true
	return nil
}

func runTrim(t *trimContext, paths []string, exporter *memoryExporter, encoders *recordingEncoders) error {
	pipeline := apptrim.NewPipeline(t.decoder, encoders)
	return cmd.RunTrimWithDependencies(
		context.Background(),
		pipeline,
		nil,
		&memoryScanner{files: t.files},
		exporter,
		packaging.NewService(archive.NewZip()),
		nil,
		nil,
		cmd.TrimInput{
			Paths:       paths,
			Seconds:     t.seconds,
			Concurrency: t.concurrency,
			Zip:         t.zip,
			RetryFailed: t.retry,
		},
		t.output,
	)
}

func iRunTheTrimCommand() error {
	t := getTrimContext()
	t.err = runTrim(t, t.paths, t.exporter, t.encoders)
	return nil
}

func theTrimCommandShouldSucceed() error {
	t := getTrimContext()
	if t.err != nil {
		return fmt.Errorf("expected success, got error: %v\noutput:\n%s", t.err, t.output.String())
	}
	return nil
}

func theTrimCommandShouldFailWith(msg string) error {
	t := getTrimContext()
	if t.err == nil {
		return fmt.Errorf("expected error containing %q, got none", msg)
	}
	if !strings.Contains(t.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, t.err.Error())
	}
	return nil
}

func theTrimOutputShouldContain(text string) error {
	out := getTrimContext().output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, out)
	}
	return nil
}

func fileShouldBeSaved(name string) error {
	if _, ok := getTrimContext().exporter.get(name); !ok {
		return fmt.Errorf("expected %s to be saved, saved files: %v", name, getTrimContext().exporter.order)
	}
	return nil
}

func fileShouldNotBeSaved(name string) error {
	if _, ok := getTrimContext().exporter.get(name); ok {
		return fmt.Errorf("expected %s not to be saved", name)
	}
	return nil
}

func filesShouldHaveBeenEncoded(n int) error {
	if got := len(getTrimContext().encoders.all()); got != n {
		return fmt.Errorf("expected %d encoder sessions, got %d", n, got)
	}
	return nil
}

func singleSession() (*encodeSession, error) {
	sessions := getTrimContext().encoders.all()
	if len(sessions) != 1 {
		return nil, fmt.Errorf("expected exactly 1 encoder session, got %d", len(sessions))
	}
	return sessions[0], nil
}

func theEncoderShouldHaveReceivedSamples(n int) error {
	s, err := singleSession()
	if err != nil {
		return err
	}
	total := 0
	for _, b := range s.blocks {
		total += b
	}
	if total != n {
		return fmt.Errorf("expected %d samples, encoder received %d", n, total)
	}
	return nil
}

func theEncoderShouldHaveBeenOpenedWith(channels, rate, kbps int) error {
	s, err := singleSession()
	if err != nil {
		return err
	}
	want := audio.EncoderConfig{Channels: channels, SampleRate: rate, BitrateKbps: kbps}
	if s.config != want {
		return fmt.Errorf("expected encoder config %+v, got %+v", want, s.config)
	}
	return nil
}

func everyBlockExceptTheLastShouldHold1152Samples() error {
	for i, s := range getTrimContext().encoders.all() {
		for j, b := range s.blocks {
			last := j == len(s.blocks)-1
			if !last && b != audio.BlockSize {
				return fmt.Errorf("session %d block %d holds %d samples", i, j, b)
			}
			if last && (b < 1 || b > audio.BlockSize) {
				return fmt.Errorf("session %d last block holds %d samples", i, b)
			}
		}
	}
	return nil
}

func everyEncoderShouldHaveBeenFlushed() error {
	for i, s := range getTrimContext().encoders.all() {
		if !s.flushed {
			return fmt.Errorf("encoder session %d was not flushed", i)
		}
	}
	return nil
}

func theFirstEncodedSampleShouldBeSourceSample(index int) error {
	s, err := singleSession()
	if err != nil {
		return err
	}
	if s.firstLeft == nil {
		return fmt.Errorf("no samples were encoded")
	}
	want := audio.ToPCM16([]float32{syntheticSample(index)})[0]
	if *s.firstLeft != want {
		return fmt.Errorf("expected first sample %d (source index %d), got %d", want, index, *s.firstLeft)
	}
	return nil
}

func readArchive() (*zip.Reader, error) {
	data, ok := getTrimContext().exporter.get(export.ArchiveName)
	if !ok {
		return nil, fmt.Errorf("%s was not saved", export.ArchiveName)
	}
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func theArchiveShouldContain(name string) error {
	zr, err := readArchive()
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		if f.Name == name {
			return nil
		}
	}
	return fmt.Errorf("archive does not contain %q", name)
}

func theArchiveShouldContainEntries(n int) error {
	zr, err := readArchive()
	if err != nil {
		return err
	}
	if len(zr.File) != n {
		return fmt.Errorf("expected %d archive entries, got %d", n, len(zr.File))
	}
	return nil
}

func outputShouldMatchTrimmingAlone(outputName, inputName string) error {
	t := getTrimContext()
	got, ok := t.exporter.get(outputName)
	if !ok {
		return fmt.Errorf("%s was not saved", outputName)
	}

	alone := newMemoryExporter()
	saved := t.output
	t.output = &bytes.Buffer{}
	wantZip := t.zip
	t.zip = false
	err := runTrim(t, []string{inputName}, alone, &recordingEncoders{})
	t.output, t.zip = saved, wantZip
	if err != nil {
		return fmt.Errorf("trimming %s alone failed: %w", inputName, err)
	}

	want, ok := alone.get(outputName)
	if !ok {
		return fmt.Errorf("trimming %s alone did not produce %s", inputName, outputName)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%s differs from the output of trimming %s alone", outputName, inputName)
	}
	return nil
}

func fileShouldHaveBeenDecoded(name string, times int) error {
	t := getTrimContext()
	desc := string(t.files[name].Data)
	count := 0
	for _, d := range t.decoder.decodeLog {
		if d == desc {
			count++
		}
	}
	if count != times {
		return fmt.Errorf("expected %s to be decoded %s times, got %d", name, strconv.Itoa(times), count)
	}
	return nil
}
