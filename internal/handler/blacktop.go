package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/valentinsg/busy-commerce/internal/cache"
	"github.com/valentinsg/busy-commerce/internal/domain/blacktop"
)

type tournamentResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Season   string    `json:"season"`
	StartsAt time.Time `json:"starts_at"`
}

func toTournamentResponse(t blacktop.Tournament) tournamentResponse {
	return tournamentResponse{ID: t.ID, Name: t.Name, Season: t.Season, StartsAt: t.StartsAt}
}

func (h *Handler) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.blacktop.ListTournaments(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]tournamentResponse, len(tournaments))
	for i, t := range tournaments {
		out[i] = toTournamentResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getTournament(w http.ResponseWriter, r *http.Request) {
	t, err := h.blacktop.GetTournament(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTournamentResponse(*t))
}

type createTournamentRequest struct {
	Name     string    `json:"name"`
	Season   string    `json:"season"`
	StartsAt time.Time `json:"starts_at"`
}

func (h *Handler) createTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t := &blacktop.Tournament{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Season:   req.Season,
		StartsAt: req.StartsAt,
	}
	if err := h.blacktop.CreateTournament(r.Context(), t); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTournamentResponse(*t))
}

type teamResponse struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	Name         string `json:"name"`
}

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.blacktop.ListTeams(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]teamResponse, len(teams))
	for i, t := range teams {
		out[i] = teamResponse{ID: t.ID, TournamentID: t.TournamentID, Name: t.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t := &blacktop.Team{
		ID:           uuid.New().String(),
		TournamentID: chi.URLParam(r, "id"),
		Name:         req.Name,
	}
	if err := h.blacktop.CreateTeam(r.Context(), t); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, teamResponse{ID: t.ID, TournamentID: t.TournamentID, Name: t.Name})
}

type matchResponse struct {
	ID         string     `json:"id"`
	Round      string     `json:"round"`
	HomeTeamID string     `json:"home_team_id"`
	AwayTeamID string     `json:"away_team_id"`
	HomeScore  int        `json:"home_score"`
	AwayScore  int        `json:"away_score"`
	Completed  bool       `json:"completed"`
	PlayedAt   *time.Time `json:"played_at,omitempty"`
}

func toMatchResponse(m blacktop.Match) matchResponse {
	return matchResponse{
		ID:         m.ID,
		Round:      m.Round,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Completed:  m.Completed,
		PlayedAt:   m.PlayedAt,
	}
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.blacktop.ListMatches(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]matchResponse, len(matches))
	for i, m := range matches {
		out[i] = toMatchResponse(m)
	}
	writeJSON(w, http.StatusOK, out)
}

type createMatchRequest struct {
	Round      string `json:"round"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
}

func (h *Handler) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.HomeTeamID == "" || req.AwayTeamID == "" || req.HomeTeamID == req.AwayTeamID {
		writeError(w, http.StatusBadRequest, "two distinct team ids are required")
		return
	}

	tournamentID := chi.URLParam(r, "id")
	m := &blacktop.Match{
		ID:           uuid.New().String(),
		TournamentID: tournamentID,
		Round:        req.Round,
		HomeTeamID:   req.HomeTeamID,
		AwayTeamID:   req.AwayTeamID,
	}
	if err := h.blacktop.CreateMatch(r.Context(), m); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.cache.Invalidate(r.Context(), fmt.Sprintf(cache.KeyStandings, tournamentID))
	writeJSON(w, http.StatusCreated, toMatchResponse(*m))
}

type recordResultRequest struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

func (h *Handler) recordResult(w http.ResponseWriter, r *http.Request) {
	var req recordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.HomeScore < 0 || req.AwayScore < 0 {
		writeError(w, http.StatusBadRequest, "scores must not be negative")
		return
	}

	if err := h.blacktop.RecordResult(r.Context(), chi.URLParam(r, "id"), req.HomeScore, req.AwayScore); err != nil {
		writeDomainError(w, r, err)
		return
	}
	// Standings cache self-expires within its short TTL.
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) teamLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	key := fmt.Sprintf(cache.KeyStandings, id)

	var standings []blacktop.Standing
	if h.cache.GetJSON(ctx, key, &standings) {
		writeJSON(w, http.StatusOK, standings)
		return
	}

	if _, err := h.blacktop.GetTournament(ctx, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	teams, err := h.blacktop.ListTeams(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	matches, err := h.blacktop.ListMatches(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	standings = blacktop.ComputeStandings(teams, matches)
	h.cache.SetJSON(ctx, key, standings, cache.TTLStandings)
	writeJSON(w, http.StatusOK, standings)
}
