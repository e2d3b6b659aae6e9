package handler

import (
	"net/http"
	"time"
)

type customerResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]customerResponse, len(customers))
	for i, c := range customers {
		out[i] = customerResponse{
			ID:        c.ID,
			Email:     c.Email,
			FullName:  c.FullName,
			Phone:     c.Phone,
			Address:   c.Address,
			City:      c.City,
			CreatedAt: c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
