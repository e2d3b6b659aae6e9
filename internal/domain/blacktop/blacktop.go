// Package blacktop covers the streetball tournament micro-site: tournaments,
// teams, matches, and the standings derived from them.
package blacktop

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrTournamentNotFound is returned for unknown tournament IDs.
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrTeamNotFound is returned for unknown team IDs.
	ErrTeamNotFound = errors.New("team not found")
)

// Tournament is a single Blacktop event.
type Tournament struct {
	ID        string
	Name      string
	Season    string
	StartsAt  time.Time
	CreatedAt time.Time
}

// Team participates in exactly one tournament.
type Team struct {
	ID           string
	TournamentID string
	Name         string
}

// Match is a fixture between two teams. Completed matches carry final scores;
// scheduled ones have Completed=false and zero scores.
type Match struct {
	ID           string
	TournamentID string
	Round        string
	HomeTeamID   string
	AwayTeamID   string
	HomeScore    int
	AwayScore    int
	Completed    bool
	PlayedAt     *time.Time
}

// Repository defines persistence for the tournament micro-site.
type Repository interface {
	ListTournaments(ctx context.Context) ([]Tournament, error)
	GetTournament(ctx context.Context, id string) (*Tournament, error)
	CreateTournament(ctx context.Context, t *Tournament) error

	ListTeams(ctx context.Context, tournamentID string) ([]Team, error)
	CreateTeam(ctx context.Context, t *Team) error

	ListMatches(ctx context.Context, tournamentID string) ([]Match, error)
	CreateMatch(ctx context.Context, m *Match) error
	RecordResult(ctx context.Context, matchID string, homeScore, awayScore int) error
}
