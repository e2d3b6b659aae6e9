package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/valentinsg/busy-commerce/internal/domain/archive"
)

// maxUploadBytes caps multipart uploads at 20 MiB.
const maxUploadBytes = 20 << 20

type archiveEntryResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Tags       []string   `json:"tags"`
	TakenAt    *time.Time `json:"taken_at,omitempty"`
	Sizes      []string   `json:"sizes"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

func toArchiveEntryResponse(e archive.Entry) archiveEntryResponse {
	sizes := make([]string, 0, len(e.Keys))
	for _, size := range []string{archive.SizeThumb, archive.SizeWeb, archive.SizeFull} {
		if _, ok := e.Keys[size]; ok {
			sizes = append(sizes, size)
		}
	}
	return archiveEntryResponse{
		ID:         e.ID,
		Title:      e.Title,
		Tags:       e.Tags,
		TakenAt:    e.TakenAt,
		Sizes:      sizes,
		UploadedAt: e.UploadedAt,
	}
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading image")
		return
	}

	in := archive.UploadInput{
		Title: r.FormValue("title"),
		Image: raw,
	}
	if tags := r.FormValue("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				in.Tags = append(in.Tags, tag)
			}
		}
	}
	if v := r.FormValue("taken_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "taken_at must be RFC3339")
			return
		}
		in.TakenAt = &t
	}

	entry, err := h.archive.Upload(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toArchiveEntryResponse(*entry))
}

func (h *Handler) listArchive(w http.ResponseWriter, r *http.Request) {
	entries, err := h.archive.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]archiveEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toArchiveEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getArchiveEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArchiveEntryResponse(*entry))
}

func (h *Handler) archiveURL(w http.ResponseWriter, r *http.Request) {
	size := r.URL.Query().Get("size")
	if size == "" {
		size = archive.SizeWeb
	}

	url, err := h.archive.SignedURL(r.Context(), chi.URLParam(r, "id"), size)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) deleteArchiveEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
