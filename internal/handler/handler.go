// Package handler exposes the storefront API over HTTP. Handlers decode
// JSON, delegate to domain services and repositories, and map domain errors
// to HTTP status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/valentinsg/busy-commerce/internal/cache"
	"github.com/valentinsg/busy-commerce/internal/domain/archive"
	"github.com/valentinsg/busy-commerce/internal/domain/auth"
	"github.com/valentinsg/busy-commerce/internal/domain/blacktop"
	"github.com/valentinsg/busy-commerce/internal/domain/blog"
	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
	"github.com/valentinsg/busy-commerce/internal/domain/customer"
	"github.com/valentinsg/busy-commerce/internal/domain/newsletter"
	"github.com/valentinsg/busy-commerce/internal/domain/order"
)

// Handler holds the domain dependencies for all HTTP endpoints.
type Handler struct {
	products   catalog.Repository
	coupons    coupon.Repository
	validator  coupon.Validator
	orders     *order.Service
	orderRepo  order.Repository
	customers  customer.Repository
	blogs      blog.Repository
	newsletter *newsletter.Service
	archive    *archive.Service
	blacktop   blacktop.Repository
	cache      *cache.Cache

	apikeys auth.Repository
	pepper  []byte
}

// Config holds the non-dependency settings for the Handler.
type Config struct {
	// APIKeyPepper is the HMAC pepper used to hash presented API keys.
	APIKeyPepper string
}

// Deps bundles the domain dependencies for NewHandler.
type Deps struct {
	Products   catalog.Repository
	Coupons    coupon.Repository
	Validator  coupon.Validator
	Orders     *order.Service
	OrderRepo  order.Repository
	Customers  customer.Repository
	Blogs      blog.Repository
	Newsletter *newsletter.Service
	Archive    *archive.Service
	Blacktop   blacktop.Repository
	Cache      *cache.Cache
	APIKeys    auth.Repository
}

// NewHandler constructs a Handler with the given dependencies.
func NewHandler(cfg Config, deps Deps) *Handler {
	return &Handler{
		products:   deps.Products,
		coupons:    deps.Coupons,
		validator:  deps.Validator,
		orders:     deps.Orders,
		orderRepo:  deps.OrderRepo,
		customers:  deps.Customers,
		blogs:      deps.Blogs,
		newsletter: deps.Newsletter,
		archive:    deps.Archive,
		blacktop:   deps.Blacktop,
		cache:      deps.Cache,
		apikeys:    deps.APIKeys,
		pepper:     []byte(cfg.APIKeyPepper),
	}
}

// Routes assembles the API router. Admin and upload routes sit behind the
// API key middleware; everything else is public.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Post("/coupons/validate", h.validateCoupon)
		r.Post("/orders", h.placeOrder)
		r.Post("/payments/webhook", h.paymentWebhook)

		r.Post("/newsletter/subscribe", h.subscribe)
		r.Post("/newsletter/unsubscribe", h.unsubscribe)

		r.Get("/blog", h.listPosts)
		r.Get("/blog/{slug}", h.getPost)

		r.Get("/archive", h.listArchive)
		r.Get("/archive/{id}", h.getArchiveEntry)
		r.Get("/archive/{id}/url", h.archiveURL)

		r.Route("/blacktop", func(r chi.Router) {
			r.Get("/tournaments", h.listTournaments)
			r.Get("/tournaments/{id}", h.getTournament)
			r.Get("/tournaments/{id}/teams", h.listTeams)
			r.Get("/tournaments/{id}/matches", h.listMatches)
			r.Get("/tournaments/{id}/team-leaderboard", h.teamLeaderboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireAPIKey)

			r.Post("/files/upload", h.uploadFile)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/products", h.createProduct)
				r.Put("/products/{id}", h.updateProduct)
				r.Delete("/products/{id}", h.deleteProduct)

				r.Get("/coupons", h.listCoupons)
				r.Post("/coupons", h.createCoupon)
				r.Post("/coupons/{code}/deactivate", h.deactivateCoupon)

				r.Get("/orders/pending", h.listPendingOrders)
				r.Post("/orders/{id}/confirm", h.confirmOrder)
				r.Post("/orders/{id}/reject", h.rejectOrder)

				r.Get("/customers", h.listCustomers)

				r.Get("/blog", h.listAllPosts)
				r.Post("/blog", h.createPost)
				r.Put("/blog/{slug}", h.updatePost)
				r.Delete("/blog/{slug}", h.deletePost)

				r.Get("/newsletter/subscribers", h.listSubscribers)
				r.Get("/newsletter/campaigns", h.listCampaigns)
				r.Post("/newsletter/campaigns", h.createCampaign)
				r.Post("/newsletter/campaigns/{id}/send", h.sendCampaign)

				r.Delete("/archive/{id}", h.deleteArchiveEntry)

				r.Route("/blacktop", func(r chi.Router) {
					r.Post("/tournaments", h.createTournament)
					r.Post("/tournaments/{id}/teams", h.createTeam)
					r.Post("/tournaments/{id}/matches", h.createMatch)
					r.Post("/matches/{id}/result", h.recordResult)
				})
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps known domain errors to status codes and falls back
// to 500 with a generic message so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch code := statusFor(err); code {
	case http.StatusInternalServerError:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, code, "internal error")
	default:
		writeError(w, code, err.Error())
	}
}

func statusFor(err error) int {
	var (
		pnf *order.ProductNotFoundError
		iq  *order.InvalidQuantityError
		ist *order.InvalidStatusError
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, blog.ErrNotFound),
		errors.Is(err, archive.ErrNotFound),
		errors.Is(err, newsletter.ErrCampaignNotFound),
		errors.Is(err, blacktop.ErrTournamentNotFound),
		errors.Is(err, blacktop.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, newsletter.ErrInvalidEmail),
		errors.Is(err, newsletter.ErrSubjectRequired),
		errors.Is(err, archive.ErrUnknownDerivative),
		errors.Is(err, archive.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, blog.ErrSlugTaken),
		errors.Is(err, newsletter.ErrAlreadyQueued):
		return http.StatusConflict
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.As(err, &pnf),
		errors.As(err, &iq):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ist):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
