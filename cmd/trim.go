package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"audio-trimmer/application/packaging"
	apptrim "audio-trimmer/application/trim"
	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"
	"audio-trimmer/domain/export"
	"audio-trimmer/infrastructure/archive"
	"audio-trimmer/infrastructure/ffmpeg"
	"audio-trimmer/infrastructure/filesystem"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	trimSeconds     string
	trimOutputDir   string
	trimZip         bool
	trimConcurrency int
	trimRetryFailed bool
	trimUpload      bool
	trimRecursive   bool
)

var trimCmd = &cobra.Command{
	Use:   "trim [files or directories...]",
	Short: "Trim the start of every MP3 file in a batch",
	Long: `Remove the first N seconds of every MP3 file given on the command line.
Directories contribute the files they contain. Files that are not MP3 are
skipped, as are files already listed (same name and modification time).

Each result is written as <name>_trimmed.mp3 into the output directory.
Files shorter than the trim duration are reported as errors and do not stop
the rest of the batch.

Example:
  audio-trimmer trim episode1.mp3 episode2.mp3 --seconds 5
  audio-trimmer trim ./episodes --seconds 00:00:07.5 --out ./trimmed --zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	trimCmd.Flags().StringVar(&trimSeconds, "seconds", "", "Trim duration in seconds or HH:MM:SS[.fff] (default from config)")
	trimCmd.Flags().StringVar(&trimOutputDir, "out", "", "Output directory (default from config)")
	trimCmd.Flags().BoolVar(&trimZip, "zip", false, "Also write all results as "+export.ArchiveName)
	trimCmd.Flags().IntVar(&trimConcurrency, "concurrency", 0, "Number of files trimmed at once (default from config)")
	trimCmd.Flags().BoolVar(&trimRetryFailed, "retry-failed", false, "Retry failed files once after the batch finishes")
	trimCmd.Flags().BoolVar(&trimUpload, "upload", false, "Upload results to the configured Google Drive folder")
	trimCmd.Flags().BoolVarP(&trimRecursive, "recursive", "r", false, "Include files in nested directories")
}

// TrimInput holds the user-facing options of one trim run
type TrimInput struct {
	Paths       []string
	Seconds     string
	Concurrency int
	Zip         bool
	RetryFailed bool
	ProgressBar bool
}

// InputScanner turns paths into batch inputs
type InputScanner interface {
	Scan(paths []string) ([]batch.Input, error)
}

// Verifier checks that an external tool is available
type Verifier interface {
	VerifyInstalled(ctx context.Context) error
}

func runTrim(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	seconds := trimSeconds
	if seconds == "" {
		seconds = strconv.FormatFloat(cfg.Trim.Seconds, 'f', -1, 64)
	}
	concurrency := trimConcurrency
	if concurrency == 0 {
		concurrency = cfg.Trim.Concurrency
	}
	outputDir := trimOutputDir
	if outputDir == "" {
		outputDir = cfg.Trim.OutputDirectory
	}

	lock, err := filesystem.LockDir(outputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	decoder := ffmpeg.NewDecoder(
		ffmpeg.WithDecoderFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
	)
	encoder := ffmpeg.NewEncoder(ffmpeg.WithEncoderFFmpegPath(cfg.FFmpeg.FFmpegPath))
	pipeline := apptrim.NewPipeline(decoder, encoder,
		apptrim.WithBitrate(cfg.Audio.BitrateKbps),
		apptrim.WithPipelineLogger(logger),
	)

	var uploader export.Exporter
	if trimUpload {
		uploader, err = newDriveUploader(cmd.Context(), cfg, os.Stdout)
		if err != nil {
			return err
		}
	}

	return RunTrimWithDependencies(
		cmd.Context(),
		pipeline,
		decoder,
		filesystem.NewScanner(filesystem.WithRecursive(trimRecursive)),
		filesystem.NewDirExporter(outputDir),
		packaging.NewService(archive.NewZip(archive.WithModified(time.Now()))),
		uploader,
		logger,
		TrimInput{
			Paths:       args,
			Seconds:     seconds,
			Concurrency: concurrency,
			Zip:         trimZip,
			RetryFailed: trimRetryFailed,
			ProgressBar: isTerminal(os.Stdout),
		},
		os.Stdout,
	)
}

// RunTrimWithDependencies runs the trim command with injected dependencies (for testing).
// verifier and uploader may be nil.
func RunTrimWithDependencies(
	ctx context.Context,
	processor apptrim.Processor,
	verifier Verifier,
	scanner InputScanner,
	exporter export.Exporter,
	packager *packaging.Service,
	uploader export.Exporter,
	logger *zap.Logger,
	input TrimInput,
	output io.Writer,
) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	spec, err := audio.ParseTrimSpec(input.Seconds)
	if err != nil {
		return &apptrim.ValidationError{
			Message:    err.Error(),
			Suggestion: "audio-trimmer trim --seconds 5",
			Err:        err,
		}
	}
	if err := spec.Validate(); err != nil {
		return &apptrim.ValidationError{
			Message:    err.Error(),
			Suggestion: "audio-trimmer trim --seconds <value greater than 0>",
			Err:        err,
		}
	}

	if verifier != nil {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifier.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	inputs, err := scanner.Scan(input.Paths)
	if err != nil {
		return err
	}

	progress := &progressReporter{out: output}
	service := apptrim.NewService(nil, processor, spec,
		apptrim.WithConcurrency(input.Concurrency),
		apptrim.WithLogger(logger),
		apptrim.WithProgress(func(done, total int, job batch.Snapshot) {
			progress.Update(done, total, job)
		}),
	)

	accepted := service.AddAll(inputs)
	if skipped := len(inputs) - accepted; skipped > 0 {
		fmt.Fprintf(output, "Skipped %d file(s) that are not MP3 or were listed twice\n", skipped)
	}
	if service.PendingCount() == 0 {
		fmt.Fprintln(output, "No MP3 files to process.")
		return nil
	}

	fmt.Fprintf(output, "Trimming the first %s from %d file(s)...\n", spec, service.PendingCount())

	summary, err := runBatch(ctx, service, progress, input.ProgressBar, output)
	if err != nil {
		return err
	}

	if input.RetryFailed && summary.Failed > 0 && ctx.Err() == nil {
		n := service.ResetFailed()
		fmt.Fprintf(output, "Retrying %d failed file(s)...\n", n)
		if _, err := runBatch(ctx, service, progress, input.ProgressBar, output); err != nil {
			return err
		}
	}

	fmt.Fprintln(output, renderJobTable(service.Jobs()))
	fmt.Fprintf(output, "%d done, %d failed, %d to process\n",
		service.DoneCount(), service.ErrorCount(), service.PendingCount())

	entries := packaging.EntriesFor(service.Completed())
	for _, entry := range entries {
		location, err := exporter.Export(ctx, entry.Name, audio.MimeTypeMP3, entry.Data)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", entry.Name, err)
		}
		fmt.Fprintf(output, "Saved %s\n", location)
	}

	var archiveData []byte
	if input.Zip {
		archiveData, err = packager.Package(entries)
		switch {
		case errors.Is(err, export.ErrNothingToPackage):
			fmt.Fprintln(output, "Nothing to package: no files finished successfully.")
		case err != nil:
			return err
		default:
			location, err := exporter.Export(ctx, export.ArchiveName, export.MimeTypeZip, archiveData)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", export.ArchiveName, err)
			}
			fmt.Fprintf(output, "Saved %s\n", location)
		}
	}

	if uploader != nil {
		if err := uploadResults(ctx, uploader, entries, archiveData, output); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("trim interrupted: %d file(s) not started: %w", service.PendingCount(), ctx.Err())
	}
	return nil
}

// runBatch runs every idle job with a fresh progress display
func runBatch(ctx context.Context, service *apptrim.Service, progress *progressReporter, useBar bool, output io.Writer) (*apptrim.RunSummary, error) {
	*progress = *newProgressReporter(output, service.PendingCount(), useBar)
	summary, err := service.RunAll(ctx)
	progress.Finish()
	return summary, err
}

// uploadResults uploads the archive when one was built, otherwise every file
func uploadResults(ctx context.Context, uploader export.Exporter, entries []export.Entry, archiveData []byte, output io.Writer) error {
	if archiveData != nil {
		entries = []export.Entry{{Name: export.ArchiveName, Data: archiveData}}
	}
	for _, entry := range entries {
		mimeType := audio.MimeTypeMP3
		if entry.Name == export.ArchiveName {
			mimeType = export.MimeTypeZip
		}
		fmt.Fprintf(output, "Uploading %s...\n", entry.Name)
		url, err := uploader.Export(ctx, entry.Name, mimeType, entry.Data)
		if err != nil {
			return fmt.Errorf("upload of %s failed: %w", entry.Name, err)
		}
		fmt.Fprintf(output, "  Shareable URL: %s\n", url)
	}
	return nil
}
