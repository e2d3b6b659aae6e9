// Package archive holds the photo archive: uploaded images stored in the R2
// bucket as three derivatives plus a database row of metadata.
package archive

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = errors.New("archive entry not found")
	// ErrUnknownDerivative is returned for sizes other than thumb/web/full.
	ErrUnknownDerivative = errors.New("unknown derivative size")
	// ErrInvalidImage is returned when the uploaded bytes do not decode as
	// an image.
	ErrInvalidImage = errors.New("invalid image")
)

// Derivative names generated on upload, smallest to largest.
const (
	SizeThumb = "thumb"
	SizeWeb   = "web"
	SizeFull  = "full"
)

// Entry is one archived photo. The Keys map derivative name to object-storage
// key; serving URLs are signed on demand.
type Entry struct {
	ID         string
	Title      string
	Tags       []string
	TakenAt    *time.Time
	Keys       map[string]string
	UploadedAt time.Time
}

// Repository defines persistence operations for archive entries.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	GetByID(ctx context.Context, id string) (*Entry, error)
	Create(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}
