package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register decoder
)

// Defaults for derived thumbnails.
const (
	DefaultBoxSize     = 400
	DefaultJPEGQuality = 85
	// DefaultMaxPixels caps width*height before a full decode.
	DefaultMaxPixels = 80_000_000
)

var (
	// ErrInvalidImage means the bytes are not a decodable raster image.
	ErrInvalidImage = errors.New("imagecodec: not a decodable image")
	// ErrTooLarge means the image dimensions exceed the pixel limit.
	ErrTooLarge = errors.New("imagecodec: image dimensions too large")
	// ErrThumbnailFailed wraps any failure while deriving a thumbnail.
	ErrThumbnailFailed = errors.New("imagecodec: thumbnail generation failed")
)

// Info holds what can be learned from an image header.
type Info struct {
	Width  int
	Height int
	Format string
}

// DecodeConfig reads the dimensions and format of data without decoding
// the pixels.
func DecodeConfig(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: zero dimensions", ErrInvalidImage)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Thumbnailer derives fixed-size JPEG thumbnails.
type Thumbnailer struct {
	box       Size
	quality   int
	maxPixels int
}

// NewThumbnailer returns a Thumbnailer for the given box. Non-positive
// values fall back to the defaults.
func NewThumbnailer(box Size, quality, maxPixels int) *Thumbnailer {
	if box.Width <= 0 {
		box.Width = DefaultBoxSize
	}
	if box.Height <= 0 {
		box.Height = DefaultBoxSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Thumbnailer{box: box, quality: quality, maxPixels: maxPixels}
}

// Box returns the thumbnail dimensions.
func (t *Thumbnailer) Box() Size { return t.box }

// MaxPixels returns the pixel limit applied before decoding.
func (t *Thumbnailer) MaxPixels() int { return t.maxPixels }

// Thumbnail decodes data and renders the thumbnail as JPEG bytes. Errors
// wrap ErrThumbnailFailed.
func (t *Thumbnailer) Thumbnail(data []byte) ([]byte, error) {
	info, err := DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrThumbnailFailed, err)
	}
	if info.Width*info.Height > t.maxPixels {
		return nil, fmt.Errorf("%w: %w", ErrThumbnailFailed, ErrTooLarge)
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrThumbnailFailed, err)
	}

	canvas := t.Render(src)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrThumbnailFailed, err)
	}
	return buf.Bytes(), nil
}

// Render flattens src onto white, fits it inside the box and centers it on
// a white box-sized canvas.
func (t *Thumbnailer) Render(src image.Image) *image.NRGBA {
	if !isOpaque(src) {
		b := src.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), color.White)
		src = imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
	}

	fitted := imaging.Fit(src, t.box.Width, t.box.Height, imaging.Lanczos)
	fb := fitted.Bounds()

	canvas := imaging.New(t.box.Width, t.box.Height, color.White)
	offset := image.Pt((t.box.Width-fb.Dx())/2, (t.box.Height-fb.Dy())/2)
	return imaging.Paste(canvas, fitted, offset)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
