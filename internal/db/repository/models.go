package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Question is the immutable content record. The correct option lives in a
// separate table (question_answers) and is never part of this struct.
type Question struct {
	QuestionID       uuid.UUID
	MediaURL         *string
	Prompt           string
	Options          [4]string
	TimeLimitSeconds int16
	Difficulty       string
	Categories       []string
	CreatedAt        time.Time
}

// Match is the aggregate root of one 1v1 game instance.
type Match struct {
	MatchID              uuid.UUID
	Status               string
	IsPrivate            bool
	JoinCode             *string
	IsBracket            bool
	CreatorID            *uuid.UUID
	CurrentQuestionIndex *int16
	CreatedAt            time.Time
	StartedAt            *time.Time
	CompletedAt          *time.Time
	ExpiresAt            time.Time
}

// ParticipantAnswer is one entry of a participant's append-only answer list.
// SelectedAnswer 0 means "no answer" and is always scored incorrect.
type ParticipantAnswer struct {
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedAnswer   int       `json:"selected_answer"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	IsCorrect        bool      `json:"is_correct"`
}

// MatchParticipant is one row per (match, user).
type MatchParticipant struct {
	MatchID          uuid.UUID
	UserID           uuid.UUID
	JoinedAt         time.Time
	CompletedAt      *time.Time
	Answers          []ParticipantAnswer
	TotalScore       *int
	TotalTimeSeconds *int
}

// MatchResult exists exactly once per completed match; match_id is the
// primary key, which is the durable guard against double creation.
type MatchResult struct {
	MatchID            uuid.UUID
	Player1ID          uuid.UUID
	Player1Score       int
	Player1TimeSeconds int
	Player2ID          uuid.UUID
	Player2Score       int
	Player2TimeSeconds int
	WinnerID           *uuid.UUID
	IsDraw             bool
	CreatedAt          time.Time
}

// Tournament is the aggregate root of a 4-player bracket. TournamentID is
// the opaque public identifier, distinct from the storage key.
type Tournament struct {
	TournamentID string
	Status       string
	CreatorID    uuid.UUID
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ExpiresAt    time.Time
}

// TournamentParticipant is one row per (tournament, user). Seed is assigned
// when the bracket starts.
type TournamentParticipant struct {
	TournamentID string
	UserID       uuid.UUID
	Seed         *int16
	JoinedAt     time.Time
}

// TournamentMatch binds a bracket slot to a concrete match. The final row is
// absent until both semifinals resolve; UNIQUE(tournament_id, round) makes
// its insert fire at most once.
type TournamentMatch struct {
	TournamentID string
	Round        string
	MatchID      uuid.UUID
	Player1ID    uuid.UUID
	Player2ID    uuid.UUID
	Status       string
	WinnerID     *uuid.UUID
}

// Profile holds the per-user gameplay aggregates mutated by the reward
// dispatcher and match completion.
type Profile struct {
	UserID              uuid.UUID
	Email               *string
	PasswordHash        *string
	DisplayName         string
	IsAdmin             bool
	Points              int
	CorrectAnswersTotal int
	ReferralCode        string
	CreatedAt           time.Time
}

// Purchase is a store item bought with points. Duration 0 means permanent.
type Purchase struct {
	PurchaseID       uuid.UUID
	UserID           uuid.UUID
	ItemType         string
	MatchesBonus     int
	TournamentsBonus int
	Duration         time.Duration
	PurchasedAt      time.Time
}

// StadiumBonuses aggregates active quota bonuses for one user.
type StadiumBonuses struct {
	Matches     int
	Tournaments int
}
