package filesystem

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"
)

// Scanner turns command-line paths into batch inputs
type Scanner struct {
	recursive bool
}

// ScannerOption is a functional option for configuring Scanner
type ScannerOption func(*Scanner)

// WithRecursive makes directory arguments include nested directories
func WithRecursive(recursive bool) ScannerOption {
	return func(s *Scanner) {
		s.recursive = recursive
	}
}

// NewScanner creates a new filesystem scanner
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan reads every file named by paths. Directories contribute their files
// sorted by name. Content types come from the file extension; filtering of
// unsupported types is left to the batch.
func (s *Scanner) Scan(paths []string) ([]batch.Input, error) {
	var inputs []batch.Input

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("source file does not exist: %s", p)
		}

		if !info.IsDir() {
			in, err := readInput(p, info)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
			continue
		}

		files, err := s.listDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			fi, err := os.Stat(f)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", f, err)
			}
			in, err := readInput(f, fi)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
	}

	return inputs, nil
}

func (s *Scanner) listDir(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

func readInput(path string, info os.FileInfo) (batch.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batch.Input{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return batch.Input{
		Name:        filepath.Base(path),
		ModTime:     info.ModTime(),
		ContentType: ContentType(path),
		Data:        data,
	}, nil
}

// ContentType returns the MIME type implied by the file extension
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == audio.Extension {
		return audio.MimeTypeMP3
	}
	return mime.TypeByExtension(ext)
}
