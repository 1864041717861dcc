package audio

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// OutputSuffix is appended to the original stem of every trimmed file
const OutputSuffix = "_trimmed"

// OutputName returns the suggested file name for a trimmed copy of name:
// "<stem>_trimmed.mp3", where a trailing ".mp3" (any case) is removed from the
// original. Names are NFC-normalized so decomposed and composed spellings of
// the same name compare equal.
func OutputName(name string) string {
	base := filepath.Base(norm.NFC.String(name))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if strings.HasSuffix(strings.ToLower(base), Extension) {
		base = base[:len(base)-len(Extension)]
	}
	return base + OutputSuffix + Extension
}
