package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/imagecodec"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/observability"
	"github.com/kbukum/portfolio/portfolio"
	"github.com/kbukum/portfolio/storage"
	"github.com/kbukum/portfolio/validation"
)

// ErrKeyCollision means a generated storage key is already in use, either
// as a recorded filename or as a stored blob.
// Ingest retries once with a fresh key before giving up.
var ErrKeyCollision = errors.New("ingest: storage key collision")

// Store is the metadata the pipeline reads and writes.
// *portfolio.Repository satisfies it.
type Store interface {
	Insert(ctx context.Context, img *portfolio.Image) error
	FilenameExists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, id uint) (*portfolio.Image, error)
	DeleteByID(ctx context.Context, id uint) error
	ListPublic(ctx context.Context) ([]portfolio.Image, error)
	ListAdmin(ctx context.Context) ([]portfolio.Image, error)
}

// Upload is one image submitted by an admin.
type Upload struct {
	Filename    string `json:"filename" validate:"required,image_ext"`
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description"`
	IsFeatured  bool   `json:"is_featured"`
	Data        []byte `json:"-"`
}

// Pipeline turns uploads into stored blobs plus a metadata row, and removes
// them again. It is the only writer of blobs.
type Pipeline struct {
	store   Store
	blobs   storage.Storage
	thumbs  *imagecodec.Thumbnailer
	cfg     Config
	newKey  KeyFunc
	metrics *observability.Metrics
	log     *logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithKeyFunc replaces the storage key generator.
func WithKeyFunc(f KeyFunc) Option {
	return func(p *Pipeline) { p.newKey = f }
}

// WithMetrics records ingest and remove counters on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New builds a pipeline writing blobs to blobs and rows to store.
func New(store Store, blobs storage.Storage, cfg Config, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	p := &Pipeline{
		store:  store,
		blobs:  blobs,
		thumbs: cfg.Thumbnailer(),
		cfg:    cfg,
		newKey: NewKey,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("ingest")
	return p
}

// Storage returns the blob backend, which also resolves public URLs.
func (p *Pipeline) Storage() storage.Storage { return p.blobs }

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Ingest validates up, derives its thumbnail, stores the original and the
// thumbnail, and records the image. On any failure after the first blob
// write every blob written by the attempt is deleted before the error is
// returned, so a failed ingest leaves neither blobs nor a row.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (img *portfolio.Image, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanIngest)
	defer func() {
		op.End(err)
		if p.metrics != nil {
			p.metrics.RecordIngest(ctx, errorCode(err))
		}
	}()

	up.Title = strings.TrimSpace(up.Title)
	up.Description = strings.TrimSpace(up.Description)
	if err := p.validate(up); err != nil {
		return nil, err
	}

	ext := imagecodec.Extension(up.Filename)
	info, err := imagecodec.DecodeConfig(up.Data)
	if err != nil {
		return nil, apperrors.InvalidInput("image", "file is not a valid image").WithCause(err)
	}
	if info.Width*info.Height > p.thumbs.MaxPixels() {
		return nil, apperrors.InvalidInput("image", "image dimensions are too large").WithCause(imagecodec.ErrTooLarge)
	}

	thumb, err := p.thumbs.Thumbnail(up.Data)
	if err != nil {
		p.log.WithContext(ctx).Error("thumbnail generation failed", logger.ErrorFields("thumbnail", err))
		return nil, apperrors.ThumbnailFailed(err)
	}

	rec := &portfolio.Image{
		Title:            up.Title,
		Description:      up.Description,
		OriginalFilename: displayName(up.Filename, ext),
		FileSize:         int64(len(up.Data)),
		Width:            info.Width,
		Height:           info.Height,
		IsFeatured:       up.IsFeatured,
	}

	for try := 1; ; try++ {
		err = p.attempt(ctx, rec, ext, up.Data, thumb)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrKeyCollision) {
			return nil, err
		}
		if try == 2 {
			return nil, apperrors.Internal(err)
		}
		p.log.WithContext(ctx).Warn("storage key collision, retrying with a fresh key", logger.Fields(logger.FieldKey, rec.Filename))
	}

	op.SetAttributes(
		attribute.Int64(observability.AttrImageID, int64(rec.ID)),
		attribute.String(observability.AttrStorageKey, rec.Filename),
	)
	p.log.WithContext(ctx).Info("image ingested", logger.Fields(
		logger.FieldImageID, rec.ID,
		logger.FieldKey, rec.Filename,
		"bytes", rec.FileSize,
		"width", rec.Width,
		"height", rec.Height,
	))
	return rec, nil
}

func (p *Pipeline) validate(up Upload) error {
	if err := validation.Validate(up); err != nil {
		return err
	}
	if len(up.Data) == 0 {
		return apperrors.InvalidInput("image", "no file data")
	}
	if int64(len(up.Data)) > p.cfg.MaxFileSize {
		return apperrors.PayloadTooLarge(p.cfg.MaxFileSize)
	}
	return nil
}

// attempt makes one try under a fresh key. It returns ErrKeyCollision
// when the key is taken in the store or in blob storage. Only blobs this
// attempt created are removed on failure; objects already present under the
// key belong to another record and are never touched.
func (p *Pipeline) attempt(ctx context.Context, rec *portfolio.Image, ext string, data, thumb []byte) (err error) {
	key, err := p.newKey(ext)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("generate key: %w", err))
	}
	rec.ID = 0
	rec.Filename = key
	thumbKey := storage.ThumbnailKey(key)

	taken, err := p.store.FilenameExists(ctx, key)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrKeyCollision, key)
	}
	for _, k := range []string{key, thumbKey} {
		exists, err := p.blobs.Exists(ctx, k)
		if err != nil {
			return apperrors.StorageError(err)
		}
		if exists {
			return fmt.Errorf("%w: blob %s", ErrKeyCollision, k)
		}
	}

	var created []string
	defer func() {
		if err != nil && len(created) > 0 {
			p.compensate(ctx, created)
		}
	}()

	if err := p.put(ctx, key, data, imagecodec.ContentType(ext)); err != nil {
		return err
	}
	created = append(created, key)

	if err := p.put(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		return err
	}
	created = append(created, thumbKey)

	if err := p.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, portfolio.ErrDuplicateFilename) {
			return fmt.Errorf("%w: %w", ErrKeyCollision, err)
		}
		p.log.WithContext(ctx).Error("recording image failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		return apperrors.DatabaseError(err)
	}
	return nil
}

// put writes one blob. Losing the key to a concurrent writer is reported
// as ErrKeyCollision.
func (p *Pipeline) put(ctx context.Context, key string, data []byte, contentType string) error {
	err := p.blobs.Put(ctx, key, bytes.NewReader(data), contentType)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrExists):
		return fmt.Errorf("%w: %w", ErrKeyCollision, err)
	default:
		p.log.WithContext(ctx).Error("storing blob failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		return apperrors.StorageError(err)
	}
}

// compensate deletes blobs written by a failed attempt. It runs even when
// ctx is already cancelled; individual failures are logged and skipped.
func (p *Pipeline) compensate(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	deleted := 0
	for _, key := range keys {
		ok, err := p.blobs.Delete(ctx, key)
		if err != nil {
			p.log.WithContext(ctx).Error("compensation delete failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
			continue
		}
		if ok {
			deleted++
		}
	}
	p.log.WithContext(ctx).Warn("ingest rolled back", logger.Fields("blobs", len(keys), "deleted", deleted))
	if p.metrics != nil {
		p.metrics.RecordCompensation(ctx, deleted)
	}
}

// Remove deletes the image with id: both blobs first, then the row. Blob
// deletion is best effort. A missing row, before or after the blobs are
// gone, yields NOT_FOUND.
func (p *Pipeline) Remove(ctx context.Context, id uint) (err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanRemove,
		attribute.Int64(observability.AttrImageID, int64(id)))
	defer func() {
		op.End(err)
		if p.metrics != nil {
			p.metrics.RecordRemove(ctx, errorCode(err))
		}
	}()

	img, err := p.store.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, id)
	}

	for _, key := range []string{img.Filename, img.ThumbnailKey()} {
		if _, err := p.blobs.Delete(ctx, key); err != nil {
			p.log.WithContext(ctx).Warn("blob delete failed", logger.Fields(
				logger.FieldImageID, id, logger.FieldKey, key, logger.FieldError, err.Error()))
		}
	}

	if err := p.store.DeleteByID(ctx, id); err != nil {
		return notFoundOr(err, id)
	}
	p.log.WithContext(ctx).Info("image removed", logger.Fields(logger.FieldImageID, id, logger.FieldKey, img.Filename))
	return nil
}

// ListPublic returns images in public display order.
func (p *Pipeline) ListPublic(ctx context.Context) ([]portfolio.Image, error) {
	images, err := p.store.ListPublic(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return images, nil
}

// ListAdmin returns images newest first.
func (p *Pipeline) ListAdmin(ctx context.Context) ([]portfolio.Image, error) {
	images, err := p.store.ListAdmin(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return images, nil
}

func notFoundOr(err error, id uint) error {
	if errors.Is(err, portfolio.ErrNotFound) {
		return apperrors.NotFound("image", strconv.FormatUint(uint64(id), 10))
	}
	return apperrors.DatabaseError(err)
}

func displayName(filename, ext string) string {
	if name := SanitizeFilename(filename); name != "" {
		return name
	}
	return "upload." + ext
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	return string(apperrors.From(err).Code)
}
