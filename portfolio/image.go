package portfolio

import (
	"time"

	"github.com/kbukum/portfolio/storage"
)

// Image is one portfolio entry.
type Image struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:200;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	Filename         string    `gorm:"size:255;not null;uniqueIndex:idx_portfolio_images_filename" json:"filename"`
	OriginalFilename string    `gorm:"size:255;not null" json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	IsFeatured       bool      `gorm:"not null;default:false" json:"is_featured"`
	DisplayOrder     int       `gorm:"not null;default:0" json:"display_order"`
}

// TableName pins the table name.
func (Image) TableName() string { return "portfolio_images" }

// ThumbnailKey returns the storage key of the image's thumbnail.
func (img Image) ThumbnailKey() string {
	return storage.ThumbnailKey(img.Filename)
}

// URLResolver turns a storage key into a client-facing URL.
type URLResolver interface {
	URL(key string) string
}

// View is the JSON representation served to clients.
type View struct {
	Image
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// View resolves blob URLs through urls.
func (img Image) View(urls URLResolver) View {
	return View{
		Image:        img,
		ImageURL:     urls.URL(img.Filename),
		ThumbnailURL: urls.URL(img.ThumbnailKey()),
	}
}

// Views converts a list of images.
func Views(images []Image, urls URLResolver) []View {
	out := make([]View, 0, len(images))
	for _, img := range images {
		out = append(out, img.View(urls))
	}
	return out
}
