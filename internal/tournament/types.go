package tournament

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Tournament lifecycle states.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Bracket rounds. The final row is inserted only after both semifinals
// resolve; its absence is what makes the advancement check race-safe.
const (
	RoundSemifinal1 = "semifinal1"
	RoundSemifinal2 = "semifinal2"
	RoundFinal      = "final"
)

// Bracket slot coordination statuses.
const (
	SlotActive    = "active"
	SlotCompleted = "completed"
	SlotCancelled = "cancelled"
)

// Capacity is the fixed bracket size: two semifinals feeding one final.
const Capacity = 4

const tournamentIDAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// newTournamentID generates the opaque public identifier.
func newTournamentID() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = tournamentIDAlphabet[rand.Intn(len(tournamentIDAlphabet))]
	}
	return "t_" + string(b)
}

// CreateRequest opens a new tournament lobby.
type CreateRequest struct {
	CreatorID uuid.UUID
	Category  string
}

// CreateResponse returns the new tournament handle.
type CreateResponse struct {
	TournamentID string    `json:"tournament_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ParticipantView is one lobby member.
type ParticipantView struct {
	UserID   uuid.UUID `json:"user_id"`
	Seed     *int16    `json:"seed,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// BracketSlotView is one bound bracket slot.
type BracketSlotView struct {
	Round     string     `json:"round"`
	MatchID   uuid.UUID  `json:"match_id"`
	Player1ID uuid.UUID  `json:"player1_id"`
	Player2ID uuid.UUID  `json:"player2_id"`
	Status    string     `json:"status"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
}

// DetailsView is the tournament projection: lobby, bracket and lifecycle.
type DetailsView struct {
	TournamentID string            `json:"tournament_id"`
	Status       string            `json:"status"`
	CreatorID    uuid.UUID         `json:"creator_id"`
	Participants []ParticipantView `json:"participants"`
	Bracket      []BracketSlotView `json:"bracket"`
	ExpiresAt    time.Time         `json:"expires_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}
