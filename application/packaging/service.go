package packaging

import (
	"fmt"
	"strings"

	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"
	"audio-trimmer/domain/export"
)

// Service maps finished jobs to archive entries and packages them
type Service struct {
	archiver export.Archiver
}

// NewService creates a new packaging service
func NewService(archiver export.Archiver) *Service {
	return &Service{archiver: archiver}
}

// Package builds one archive from entries. An empty list yields
// export.ErrNothingToPackage instead of an empty archive.
func (s *Service) Package(entries []export.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, export.ErrNothingToPackage
	}

	data, err := s.archiver.Archive(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive: %w", err)
	}
	return data, nil
}

// PackageOutputs derives entry names for outputs and packages them
func (s *Service) PackageOutputs(outputs []batch.Output) ([]byte, error) {
	return s.Package(EntriesFor(outputs))
}

// EntriesFor names each output "<stem>_trimmed.mp3". When two outputs map
// to the same name the later ones become "<stem>_trimmed (2).mp3", "(3)", ...
func EntriesFor(outputs []batch.Output) []export.Entry {
	entries := make([]export.Entry, 0, len(outputs))
	used := make(map[string]bool, len(outputs))

	for _, out := range outputs {
		name := audio.OutputName(out.Name)
		if used[strings.ToLower(name)] {
			name = disambiguate(name, used)
		}
		used[strings.ToLower(name)] = true
		entries = append(entries, export.Entry{Name: name, Data: out.Data})
	}

	return entries
}

func disambiguate(name string, used map[string]bool) string {
	stem := strings.TrimSuffix(name, audio.Extension)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, audio.Extension)
		if !used[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
