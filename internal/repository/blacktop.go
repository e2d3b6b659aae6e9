package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/blacktop"
)

const (
	listTournamentsSQL = `SELECT id, name, season, starts_at, created_at
		FROM blacktop_tournaments ORDER BY starts_at DESC`

	getTournamentSQL = `SELECT id, name, season, starts_at, created_at
		FROM blacktop_tournaments WHERE id = $1`

	insertTournamentSQL = `INSERT INTO blacktop_tournaments (id, name, season, starts_at)
		VALUES ($1, $2, $3, $4)`

	listTeamsSQL = `SELECT id, tournament_id, name
		FROM blacktop_teams WHERE tournament_id = $1 ORDER BY name`

	insertTeamSQL = `INSERT INTO blacktop_teams (id, tournament_id, name) VALUES ($1, $2, $3)`

	listMatchesSQL = `SELECT id, tournament_id, round, home_team_id, away_team_id,
		home_score, away_score, completed, played_at
		FROM blacktop_matches WHERE tournament_id = $1 ORDER BY played_at NULLS LAST, id`

	insertMatchSQL = `INSERT INTO blacktop_matches
		(id, tournament_id, round, home_team_id, away_team_id, home_score, away_score, completed, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	recordResultSQL = `UPDATE blacktop_matches
		SET home_score = $2, away_score = $3, completed = TRUE, played_at = now()
		WHERE id = $1`
)

var _ blacktop.Repository = (*BlacktopRepository)(nil)

// BlacktopRepository implements blacktop.Repository backed by PostgreSQL.
type BlacktopRepository struct {
	pool *pgxpool.Pool
}

// NewBlacktopRepository returns a BlacktopRepository that uses the given pool.
func NewBlacktopRepository(pool *pgxpool.Pool) *BlacktopRepository {
	return &BlacktopRepository{pool: pool}
}

// ListTournaments returns all tournaments, most recent first.
func (r *BlacktopRepository) ListTournaments(ctx context.Context) ([]blacktop.Tournament, error) {
	rows, err := r.pool.Query(ctx, listTournamentsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	return pgx.CollectRows(rows, scanTournament)
}

// GetTournament returns a single tournament.
func (r *BlacktopRepository) GetTournament(ctx context.Context, id string) (*blacktop.Tournament, error) {
	rows, err := r.pool.Query(ctx, getTournamentSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting tournament %q: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTournament)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blacktop.ErrTournamentNotFound
		}
		return nil, fmt.Errorf("getting tournament %q: %w", id, err)
	}
	return &t, nil
}

// CreateTournament inserts a new tournament.
func (r *BlacktopRepository) CreateTournament(ctx context.Context, t *blacktop.Tournament) error {
	_, err := r.pool.Exec(ctx, insertTournamentSQL, t.ID, t.Name, t.Season, t.StartsAt)
	if err != nil {
		return fmt.Errorf("creating tournament %q: %w", t.ID, err)
	}
	return nil
}

// ListTeams returns a tournament's teams ordered by name.
func (r *BlacktopRepository) ListTeams(ctx context.Context, tournamentID string) ([]blacktop.Team, error) {
	rows, err := r.pool.Query(ctx, listTeamsSQL, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (blacktop.Team, error) {
		var t blacktop.Team
		err := row.Scan(&t.ID, &t.TournamentID, &t.Name)
		return t, err
	})
}

// CreateTeam inserts a new team. The tournament must exist.
func (r *BlacktopRepository) CreateTeam(ctx context.Context, t *blacktop.Team) error {
	_, err := r.pool.Exec(ctx, insertTeamSQL, t.ID, t.TournamentID, t.Name)
	if err != nil {
		return fmt.Errorf("creating team %q: %w", t.ID, err)
	}
	return nil
}

// ListMatches returns a tournament's matches, played ones first.
func (r *BlacktopRepository) ListMatches(ctx context.Context, tournamentID string) ([]blacktop.Match, error) {
	rows, err := r.pool.Query(ctx, listMatchesSQL, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (blacktop.Match, error) {
		var m blacktop.Match
		err := row.Scan(
			&m.ID, &m.TournamentID, &m.Round, &m.HomeTeamID, &m.AwayTeamID,
			&m.HomeScore, &m.AwayScore, &m.Completed, &m.PlayedAt,
		)
		return m, err
	})
}

// CreateMatch inserts a fixture.
func (r *BlacktopRepository) CreateMatch(ctx context.Context, m *blacktop.Match) error {
	_, err := r.pool.Exec(ctx, insertMatchSQL,
		m.ID, m.TournamentID, m.Round, m.HomeTeamID, m.AwayTeamID,
		m.HomeScore, m.AwayScore, m.Completed, m.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("creating match %q: %w", m.ID, err)
	}
	return nil
}

// RecordResult finalizes a match with its score.
func (r *BlacktopRepository) RecordResult(ctx context.Context, matchID string, homeScore, awayScore int) error {
	tag, err := r.pool.Exec(ctx, recordResultSQL, matchID, homeScore, awayScore)
	if err != nil {
		return fmt.Errorf("recording result for match %q: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("match %q not found", matchID)
	}
	return nil
}

func scanTournament(row pgx.CollectableRow) (blacktop.Tournament, error) {
	var t blacktop.Tournament
	err := row.Scan(&t.ID, &t.Name, &t.Season, &t.StartsAt, &t.CreatedAt)
	return t, err
}
