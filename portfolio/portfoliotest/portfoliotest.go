// Package portfoliotest provides an in-memory metadata store and image
// fixtures for tests.
package portfoliotest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/portfolio"
)

// NewDB opens a private in-memory SQLite database with the portfolio
// schema applied. It is closed when the test ends.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{DSN: ":memory:", LogLevel: "silent"}, logger.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := portfolio.NewMigrator(db, logger.NewNop()).Up(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewRepository returns a repository on a fresh test database.
func NewRepository(t testing.TB) (*portfolio.Repository, *database.DB) {
	t.Helper()
	db := NewDB(t)
	return portfolio.NewRepository(db), db
}

// CountRows returns the number of rows in portfolio_images.
func CountRows(t testing.TB, db *database.DB) int64 {
	t.Helper()
	var n int64
	if err := db.WithContext(context.Background()).Model(&portfolio.Image{}).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

// AssertRowCount fails the test if portfolio_images does not hold want rows.
func AssertRowCount(t testing.TB, db *database.DB, want int64) {
	t.Helper()
	if got := CountRows(t, db); got != want {
		t.Errorf("portfolio_images row count = %d, want %d", got, want)
	}
}

// PNG returns an opaque w x h PNG with a simple gradient.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
