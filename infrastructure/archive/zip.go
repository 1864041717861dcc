package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"audio-trimmer/domain/export"
)

// Zip implements export.Archiver by writing a ZIP archive in memory
type Zip struct {
	method   uint16
	modified time.Time
}

// ZipOption is a functional option for configuring Zip
type ZipOption func(*Zip)

// WithModified sets the modification time stored for every entry
func WithModified(t time.Time) ZipOption {
	return func(z *Zip) {
		z.modified = t
	}
}

// WithDeflate compresses entries instead of storing them.
// MP3 data rarely shrinks, so entries are stored by default.
func WithDeflate() ZipOption {
	return func(z *Zip) {
		z.method = zip.Deflate
	}
}

// NewZip creates a new ZIP archiver
func NewZip(opts ...ZipOption) *Zip {
	z := &Zip{method: zip.Store}

	for _, opt := range opts {
		opt(z)
	}

	return z
}

// Archive implements export.Archiver
func (z *Zip) Archive(entries []export.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	modified := z.modified
	if modified.IsZero() {
		modified = time.Now()
	}

	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   z.method,
			Modified: modified,
		}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", e.Name, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", e.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure Zip implements export.Archiver
var _ export.Archiver = (*Zip)(nil)
