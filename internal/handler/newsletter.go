package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/valentinsg/busy-commerce/internal/domain/newsletter"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	sub, err := h.newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": sub.Email})
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.newsletter.Unsubscribe(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subscriberResponse struct {
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listSubscribers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	subs, err := h.newsletter.ListSubscribers(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]subscriberResponse, len(subs))
	for i, s := range subs {
		out[i] = subscriberResponse{Email: s.Email, Active: s.Active, CreatedAt: s.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

type campaignResponse struct {
	ID       string     `json:"id"`
	Subject  string     `json:"subject"`
	Body     string     `json:"body"`
	Status   string     `json:"status"`
	QueuedAt *time.Time `json:"queued_at,omitempty"`
}

func toCampaignResponse(c newsletter.Campaign) campaignResponse {
	return campaignResponse{
		ID:       c.ID,
		Subject:  c.Subject,
		Body:     c.Body,
		Status:   c.Status,
		QueuedAt: c.QueuedAt,
	}
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.newsletter.ListCampaigns(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]campaignResponse, len(campaigns))
	for i, c := range campaigns {
		out[i] = toCampaignResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type createCampaignRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := h.newsletter.CreateCampaign(r.Context(), req.Subject, req.Body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(*c))
}

func (h *Handler) sendCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.newsletter.Send(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(*c))
}
