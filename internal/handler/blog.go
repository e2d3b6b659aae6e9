package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/valentinsg/busy-commerce/internal/domain/blog"
)

type postResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content,omitempty"`
	CoverImage  string     `json:"cover_image"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toPostResponse(p blog.Post, withContent bool) postResponse {
	resp := postResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		CoverImage:  p.CoverImage,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
	}
	if withContent {
		resp.Content = p.Content
	}
	return resp
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	h.writePosts(w, r, true)
}

func (h *Handler) listAllPosts(w http.ResponseWriter, r *http.Request) {
	h.writePosts(w, r, false)
}

func (h *Handler) writePosts(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	posts, err := h.blogs.List(r.Context(), publishedOnly)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = toPostResponse(p, false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.blogs.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !p.Published {
		writeDomainError(w, r, blog.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(*p, true))
}

type postRequest struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
	Published  bool   `json:"published"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Slug == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "slug and title are required")
		return
	}

	p := &blog.Post{
		ID:         uuid.New().String(),
		Slug:       req.Slug,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		CoverImage: req.CoverImage,
		Published:  req.Published,
	}
	if p.Published {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	if err := h.blogs.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(*p, true))
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	existing, err := h.blogs.GetBySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	existing.Title = req.Title
	existing.Excerpt = req.Excerpt
	existing.Content = req.Content
	existing.CoverImage = req.CoverImage
	if req.Slug != "" {
		existing.Slug = req.Slug
	}
	if req.Published && !existing.Published {
		now := time.Now().UTC()
		existing.PublishedAt = &now
	}
	existing.Published = req.Published

	if err := h.blogs.Update(r.Context(), existing); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(*existing, true))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	p, err := h.blogs.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.blogs.Delete(r.Context(), p.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
