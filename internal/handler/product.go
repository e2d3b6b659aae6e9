package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/cache"
	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
)

type imageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Desktop   string `json:"desktop"`
}

type productResponse struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	Price    float64       `json:"price"`
	Category string        `json:"category"`
	Stock    int           `json:"stock"`
	Image    imageResponse `json:"image"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Price:    p.Price.InexactFloat64(),
		Category: p.Category,
		Stock:    p.Stock,
		Image: imageResponse{
			Thumbnail: p.Image.Thumbnail,
			Mobile:    p.Image.Mobile,
			Desktop:   p.Image.Desktop,
		},
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var out []productResponse
	if h.cache.GetJSON(ctx, cache.KeyProductList, &out) {
		writeJSON(w, http.StatusOK, out)
		return
	}

	products, err := h.products.List(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out = make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	h.cache.SetJSON(ctx, cache.KeyProductList, out, cache.TTLProductList)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	key := fmt.Sprintf(cache.KeyProduct, id)

	var out productResponse
	if h.cache.GetJSON(ctx, key, &out) {
		writeJSON(w, http.StatusOK, out)
		return
	}

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out = toProductResponse(*p)
	h.cache.SetJSON(ctx, key, out, cache.TTLProduct)
	writeJSON(w, http.StatusOK, out)
}

type productRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func (req *productRequest) toDomain(id string) *catalog.Product {
	return &catalog.Product{
		ID:       id,
		Name:     req.Name,
		Slug:     req.Slug,
		Price:    decimal.NewFromFloat(req.Price),
		Category: req.Category,
		Stock:    req.Stock,
		Image: catalog.Image{
			Thumbnail: req.Image.Thumbnail,
			Mobile:    req.Image.Mobile,
			Desktop:   req.Image.Desktop,
		},
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "name required and price must not be negative")
		return
	}

	p := req.toDomain(uuid.New().String())
	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.cache.Invalidate(r.Context(), cache.KeyProductList)
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	p := req.toDomain(chi.URLParam(r, "id"))
	if err := h.products.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.cache.Invalidate(r.Context(), cache.KeyProductList, fmt.Sprintf(cache.KeyProduct, p.ID))
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.products.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.cache.Invalidate(r.Context(), cache.KeyProductList, fmt.Sprintf(cache.KeyProduct, id))
	w.WriteHeader(http.StatusNoContent)
}
