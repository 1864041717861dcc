package export

import (
	"context"
	"errors"
)

// ArchiveName is the suggested file name of a bulk export
const ArchiveName = "trimmed_files.zip"

// MimeTypeZip is the content type of the bulk archive
const MimeTypeZip = "application/zip"

// ErrNothingToPackage is returned when a bulk export is requested with no finished files
var ErrNothingToPackage = errors.New("nothing to package: no files have finished processing")

// Entry is a named byte buffer destined for an archive or a download
type Entry struct {
	Name string
	Data []byte
}

// Archiver packages named buffers into a single archive buffer
// This is a port that can be implemented by different infrastructure adapters
type Archiver interface {
	Archive(entries []Entry) ([]byte, error)
}

// Exporter delivers a finished buffer under a suggested file name and
// returns where it ended up (a path or a URL)
type Exporter interface {
	Export(ctx context.Context, name, mimeType string, data []byte) (string, error)
}
