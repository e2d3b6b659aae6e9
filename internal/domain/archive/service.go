package archive

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/valentinsg/busy-commerce/internal/cache"
)

// Max bounding-box widths per derivative. Heights follow the aspect ratio.
var derivativeWidths = map[string]int{
	SizeThumb: 320,
	SizeWeb:   1280,
	SizeFull:  2560,
}

// signedURLTTL must stay shorter than bucket lifecycle rules; the cache TTL
// below it guarantees we never serve a URL past its expiry.
const signedURLTTL = 15 * time.Minute

// ObjectStore is the slice of the storage client the archive needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Service handles uploads, derivative generation, and URL signing.
type Service struct {
	repo  Repository
	store ObjectStore
	urls  *cache.Cache
	now   func() time.Time
}

// NewService creates an archive Service. urls may be nil to disable URL caching.
func NewService(repo Repository, store ObjectStore, urls *cache.Cache) *Service {
	return &Service{repo: repo, store: store, urls: urls, now: time.Now}
}

// UploadInput carries a decoded upload and its metadata.
type UploadInput struct {
	Title   string
	Tags    []string
	TakenAt *time.Time
	Image   []byte
}

// Upload decodes the image, generates the three derivatives, stores them in
// the bucket, and records the entry. The original bytes are discarded once
// the full-size derivative is written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Entry, error) {
	src, err := imaging.Decode(bytes.NewReader(in.Image), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidImage, "decode: %v", err)
	}

	entry := &Entry{
		ID:         uuid.New().String(),
		Title:      in.Title,
		Tags:       in.Tags,
		TakenAt:    in.TakenAt,
		Keys:       make(map[string]string, len(derivativeWidths)),
		UploadedAt: s.now().UTC(),
	}

	for size, width := range derivativeWidths {
		img := src
		if src.Bounds().Dx() > width {
			img = imaging.Resize(src, width, 0, imaging.Lanczos)
		}
		key := objectKey(entry.ID, size)
		if err := s.uploadJPEG(ctx, key, img); err != nil {
			s.cleanupObjects(ctx, entry)
			return nil, err
		}
		entry.Keys[size] = key
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.cleanupObjects(ctx, entry)
		return nil, errors.Wrap(err, "create entry")
	}
	return entry, nil
}

// SignedURL returns a time-limited GET URL for one derivative of an entry.
func (s *Service) SignedURL(ctx context.Context, id, size string) (string, error) {
	if _, ok := derivativeWidths[size]; !ok {
		return "", ErrUnknownDerivative
	}

	cacheKey := fmt.Sprintf(cache.KeySignedURL, id, size)
	if url, ok := s.urls.GetString(ctx, cacheKey); ok {
		return url, nil
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	key, ok := entry.Keys[size]
	if !ok {
		return "", ErrNotFound
	}
	url, err := s.store.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", err
	}
	s.urls.SetString(ctx, cacheKey, url, cache.TTLSignedURL)
	return url, nil
}

// List returns all archive entries.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}

// Get returns a single archive entry.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes an entry and its stored objects.
func (s *Service) Delete(ctx context.Context, id string) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cleanupObjects(ctx, entry)
	keys := make([]string, 0, len(entry.Keys))
	for size := range entry.Keys {
		keys = append(keys, fmt.Sprintf(cache.KeySignedURL, id, size))
	}
	s.urls.Invalidate(ctx, keys...)
	return nil
}

func (s *Service) uploadJPEG(ctx context.Context, key string, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := s.store.Upload(ctx, key, "image/jpeg", &buf); err != nil {
		return err
	}
	return nil
}

func (s *Service) cleanupObjects(ctx context.Context, entry *Entry) {
	keys := make([]string, 0, len(entry.Keys))
	for _, key := range entry.Keys {
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return
	}
	// Best effort, orphaned objects are cleaned by bucket lifecycle rules.
	_ = s.store.Delete(ctx, keys...)
}

func objectKey(id, size string) string {
	return fmt.Sprintf("archive/%s/%s.jpg", id, size)
}
