package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/blog"
)

const (
	postColumns = `id, slug, title, excerpt, content, cover_image, published,
		published_at, created_at, updated_at`

	listPostsSQL = `SELECT ` + postColumns + ` FROM blog_posts
		WHERE ($1 = FALSE OR published = TRUE)
		ORDER BY COALESCE(published_at, created_at) DESC`

	getPostBySlugSQL = `SELECT ` + postColumns + ` FROM blog_posts WHERE slug = $1`

	insertPostSQL = `INSERT INTO blog_posts
		(id, slug, title, excerpt, content, cover_image, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updatePostSQL = `UPDATE blog_posts SET slug = $2, title = $3, excerpt = $4, content = $5,
		cover_image = $6, published = $7, published_at = $8, updated_at = now()
		WHERE id = $1`

	deletePostSQL = `DELETE FROM blog_posts WHERE id = $1`
)

var _ blog.Repository = (*BlogRepository)(nil)

// BlogRepository implements blog.Repository backed by PostgreSQL.
type BlogRepository struct {
	pool *pgxpool.Pool
}

// NewBlogRepository returns a BlogRepository that uses the given pool.
func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{pool: pool}
}

// List returns posts, optionally restricted to published ones.
func (r *BlogRepository) List(ctx context.Context, publishedOnly bool) ([]blog.Post, error) {
	rows, err := r.pool.Query(ctx, listPostsSQL, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return pgx.CollectRows(rows, scanPost)
}

// GetBySlug returns the post with the given slug.
func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	rows, err := r.pool.Query(ctx, getPostBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting post %q: %w", slug, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrNotFound
		}
		return nil, fmt.Errorf("getting post %q: %w", slug, err)
	}
	return &p, nil
}

// Create inserts a new post. A duplicate slug maps to blog.ErrSlugTaken.
func (r *BlogRepository) Create(ctx context.Context, p *blog.Post) error {
	_, err := r.pool.Exec(ctx, insertPostSQL,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Content, p.CoverImage, p.Published, p.PublishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return blog.ErrSlugTaken
		}
		return fmt.Errorf("creating post %q: %w", p.Slug, err)
	}
	return nil
}

// Update rewrites every mutable column of a post.
func (r *BlogRepository) Update(ctx context.Context, p *blog.Post) error {
	tag, err := r.pool.Exec(ctx, updatePostSQL,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Content, p.CoverImage, p.Published, p.PublishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return blog.ErrSlugTaken
		}
		return fmt.Errorf("updating post %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrNotFound
	}
	return nil
}

// Delete removes a post.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePostSQL, id)
	if err != nil {
		return fmt.Errorf("deleting post %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanPost(row pgx.CollectableRow) (blog.Post, error) {
	var p blog.Post
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.CoverImage,
		&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
