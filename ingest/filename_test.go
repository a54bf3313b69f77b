package ingest

import (
	"regexp"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"My Vase.PNG", "My_Vase.PNG"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\shot 1.jpg`, "shot_1.jpg"},
		{"café déjà vu.webp", "cafe_deja_vu.webp"},
		{"  spaced   out .gif", "spaced_out_.gif"},
		{"..hidden.png", "hidden.png"},
		{"日本.png", "png"},
		{"a<b>c?.jpeg", "abc.jpeg"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayNameFallback(t *testing.T) {
	if got := displayName("日本", "png"); got != "upload.png" {
		t.Errorf("got %q", got)
	}
}

func TestNewKey(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}\.jpeg$`)
	a, err := NewKey("JPEG")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewKey("jpeg")
	if !pattern.MatchString(a) || !pattern.MatchString(b) || a == b {
		t.Errorf("keys %q %q", a, b)
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.MaxFileSize != 16<<20 || c.ThumbnailSize != 400 || c.ThumbnailQuality != 85 {
		t.Errorf("defaults = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	c.ThumbnailQuality = 101
	if err := c.Validate(); err == nil {
		t.Error("expected quality error")
	}
}
