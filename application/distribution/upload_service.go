package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"audio-trimmer/domain/distribution"
	"audio-trimmer/domain/export"

	"github.com/dustin/go-humanize"
)

// ErrInsufficientStorage is returned when the Drive quota cannot hold an upload
var ErrInsufficientStorage = errors.New("insufficient Google Drive storage")

// UploadService uploads finished files to a Google Drive folder and shares them by link
type UploadService struct {
	driveClient distribution.DriveClient
	folderID    string
	output      io.Writer
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		folderID:    folderID,
		output:      output,
	}
}

// Upload replaces any same-named file in the folder, uploads data and shares it
func (s *UploadService) Upload(ctx context.Context, name, mimeType string, data []byte) (*distribution.UploadResult, error) {
	fileName := filepath.Base(name)
	if fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}

	storage, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage: %w", err)
	}

	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}

	needed := int64(len(data))
	if existing != nil {
		needed -= existing.Size
	}
	if !storage.HasSpaceFor(needed) {
		return nil, fmt.Errorf("%w: need %s, %s available", ErrInsufficientStorage,
			humanize.IBytes(uint64(max(needed, 0))), humanize.IBytes(uint64(storage.AvailableBytes)))
	}

	if existing != nil {
		fmt.Fprintf(s.output, "      Replacing existing %s (%s)\n", existing.Name, humanize.IBytes(uint64(max(existing.Size, 0))))
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	result, err := s.driveClient.UploadAndShare(ctx, distribution.UploadRequest{
		FileName: fileName,
		FolderID: s.folderID,
		MimeType: mimeType,
		Content:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	return result, nil
}

// Export implements export.Exporter and returns the shareable URL
func (s *UploadService) Export(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	result, err := s.Upload(ctx, name, mimeType, data)
	if err != nil {
		return "", err
	}
	return result.ShareableURL, nil
}

var _ export.Exporter = (*UploadService)(nil)
