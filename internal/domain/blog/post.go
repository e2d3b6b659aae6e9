// Package blog holds the storefront blog posts.
package blog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken is returned when creating a post with a duplicate slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// Post is a blog entry. Unpublished posts are only visible through admin
// listings.
type Post struct {
	ID          string
	Slug        string
	Title       string
	Excerpt     string
	Content     string
	CoverImage  string
	Published   bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository defines persistence operations for blog posts.
type Repository interface {
	List(ctx context.Context, publishedOnly bool) ([]Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	Create(ctx context.Context, p *Post) error
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
}
