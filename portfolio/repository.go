package portfolio

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/database/migration"
	"github.com/kbukum/portfolio/logger"
)

// Migrations holds the versioned schema for portfolio_images.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"

// NewMigrator returns a migrator for the portfolio schema.
func NewMigrator(db *database.DB, log *logger.Logger) *migration.Migrator {
	return migration.New(db, Migrations, MigrationsDir, log)
}

var (
	// ErrNotFound means no image row has the requested id.
	ErrNotFound = errors.New("portfolio: image not found")
	// ErrDuplicateFilename means the storage key is already recorded.
	ErrDuplicateFilename = errors.New("portfolio: filename already recorded")
)

// Repository reads and writes portfolio_images.
type Repository struct {
	db *database.DB
}

// NewRepository returns a repository on db.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Insert records img in its own transaction and fills in its ID and
// CreatedAt. A filename that is already recorded yields ErrDuplicateFilename
// and nothing is written.
func (r *Repository) Insert(ctx context.Context, img *Image) error {
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(img).Error
	})
	if err != nil {
		img.ID = 0
		if database.IsDuplicateError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateFilename, img.Filename)
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// FilenameExists reports whether a row already uses key.
func (r *Repository) FilenameExists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Image{}).Where("filename = ?", key).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check filename: %w", err)
	}
	return n > 0, nil
}

// Get returns the image with id.
func (r *Repository) Get(ctx context.Context, id uint) (*Image, error) {
	var img Image
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		if database.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get image %d: %w", id, err)
	}
	return &img, nil
}

// DeleteByID removes the row with id. A missing row yields ErrNotFound.
func (r *Repository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Image{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete image %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// ListPublic returns every image ordered by display_order ascending, then
// newest first. Rows with equal order and timestamp fall back to id.
func (r *Repository) ListPublic(ctx context.Context) ([]Image, error) {
	var images []Image
	err := r.db.WithContext(ctx).
		Order("display_order ASC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list public images: %w", err)
	}
	return images, nil
}

// ListAdmin returns every image, newest first.
func (r *Repository) ListAdmin(ctx context.Context) ([]Image, error) {
	var images []Image
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list admin images: %w", err)
	}
	return images, nil
}

// Count returns the number of recorded images.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Image{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}
