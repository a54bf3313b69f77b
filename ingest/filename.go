package ingest

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces a client supplied filename to a safe display
// name: directories are dropped, the name is folded to ASCII, runs of
// whitespace become "_", and anything outside [A-Za-z0-9_.-] is removed
// along with leading and trailing dots and underscores. The result is never
// used as a storage key and may be empty.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}

	var ascii strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}
	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// KeyFunc returns a fresh storage key for a file with extension ext.
type KeyFunc func(ext string) (string, error)

// NewKey returns 32 lowercase hex characters from a random UUID followed by
// "." and ext.
func NewKey(ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "") + "." + strings.ToLower(ext), nil
}
