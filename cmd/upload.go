package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	appdist "audio-trimmer/application/distribution"
	apptrim "audio-trimmer/application/trim"
	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/distribution"
	"audio-trimmer/domain/export"
	"audio-trimmer/infrastructure/config"
	"audio-trimmer/infrastructure/drive"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload trimmed files to Google Drive with public sharing",
	Long: `Upload trimmed MP3 files or a trimmed_files.zip archive to Google Drive and
make them readable by anyone with the link.

The files go to the folder set by google.folder_id. A file with the same
name already in the folder is replaced.

Example:
  audio-trimmer upload trimmed/episode1_trimmed.mp3
  audio-trimmer upload trimmed/trimmed_files.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := newDriveClient(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}

	return RunUploadWithDependencies(ctx, client, cfg.Google.FolderID, args, os.Stdout)
}

// newDriveClient builds an OAuth Drive client from the google config section
func newDriveClient(ctx context.Context, cfg *config.Config, out io.Writer) (*drive.Client, error) {
	if cfg.Google.CredentialsFile == "" {
		return nil, &apptrim.ValidationError{
			Message:    "google.credentials_file is not set",
			Suggestion: config.SuggestSetCommand("google.credentials_file", "credentials.json"),
		}
	}
	if cfg.Google.FolderID == "" {
		return nil, &apptrim.ValidationError{
			Message:    "google.folder_id is not set",
			Suggestion: config.SuggestSetCommand("google.folder_id", "<drive folder id>"),
		}
	}
	client, err := drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		Output:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Drive client: %w", err)
	}
	return client, nil
}

// newDriveUploader returns an exporter that uploads into the configured folder
func newDriveUploader(ctx context.Context, cfg *config.Config, out io.Writer) (export.Exporter, error) {
	client, err := newDriveClient(ctx, cfg, out)
	if err != nil {
		return nil, err
	}
	return appdist.NewUploadService(client, cfg.Google.FolderID, out), nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	paths []string,
	output io.Writer,
) error {
	service := appdist.NewUploadService(driveClient, folderID, output)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("file does not exist: %s", path)
		}

		name := filepath.Base(path)
		fmt.Fprintf(output, "Uploading %s...\n", name)
		result, err := service.Upload(ctx, name, mimeTypeFor(name), data)
		if err != nil {
			return fmt.Errorf("upload of %s failed: %w", name, err)
		}
		fmt.Fprintf(output, "Uploaded successfully!\n")
		fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
		fmt.Fprintf(output, "  Size: %s\n", humanize.IBytes(uint64(result.Size)))
		fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
		fmt.Fprintln(output)
	}

	fmt.Fprintf(output, "Upload complete!\n")
	return nil
}

func mimeTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return export.MimeTypeZip
	case audio.Extension:
		return audio.MimeTypeMP3
	default:
		return "application/octet-stream"
	}
}
