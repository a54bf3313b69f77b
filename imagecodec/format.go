package imagecodec

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// AllowedExtensions lists the accepted upload extensions in display order.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// Extension returns the lowercased extension of filename without the dot,
// or "" when there is none.
func Extension(filename string) string {
	ext := path.Ext(strings.ReplaceAll(filename, `\`, "/"))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExtension reports whether ext (with or without a leading dot) is
// an accepted upload format. The check is case-insensitive.
func AllowedExtension(ext string) bool {
	_, ok := contentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// ContentType returns the MIME type for ext, or application/octet-stream.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}
	return "application/octet-stream"
}
