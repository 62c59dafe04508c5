package match

import (
	"time"

	"github.com/google/uuid"

	"github.com/quizduel/duel-platform/internal/db/repository"
)

// Match lifecycle states. Transitions are enforced centrally, both in
// canTransition and in the SQL guard of every status update.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// MaxParticipants is the fixed capacity of a 1v1 match.
const MaxParticipants = 2

var transitions = map[string][]string{
	StatusWaiting: {StatusActive, StatusCancelled},
	StatusActive:  {StatusCompleted, StatusCancelled},
}

// canTransition reports whether from -> to is a legal lifecycle move.
func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// allowedFrom returns every state from which `to` is reachable; used as the
// SQL-side transition guard.
func allowedFrom(to string) []string {
	var from []string
	for state, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				from = append(from, state)
			}
		}
	}
	return from
}

// liveStates are the states the expiry sweep and forced cancellation touch.
var liveStates = []string{StatusWaiting, StatusActive}

// CreateRequest creates a new 1v1 match.
type CreateRequest struct {
	CreatorID uuid.UUID
	IsPrivate bool
	Category  string
}

// CreateResponse returns the new match handle; JoinCode is set for private
// matches only.
type CreateResponse struct {
	MatchID   uuid.UUID
	JoinCode  string
	ExpiresAt time.Time
}

// SubmitRequest carries one answer submission.
type SubmitRequest struct {
	MatchID          uuid.UUID
	UserID           uuid.UUID
	QuestionID       uuid.UUID
	SelectedAnswer   int
	TimeSpentSeconds int
}

// SubmitResult is returned to the answering client. It never carries the
// correct option.
type SubmitResult struct {
	IsCorrect     bool `json:"is_correct"`
	UserCompleted bool `json:"user_completed"`
}

// QuestionContent is the client-safe projection of a question.
type QuestionContent struct {
	QuestionID       uuid.UUID `json:"question_id"`
	MediaURL         *string   `json:"media_url,omitempty"`
	Prompt           string    `json:"prompt"`
	Options          [4]string `json:"options"`
	TimeLimitSeconds int16     `json:"time_limit_seconds"`
	Difficulty       string    `json:"difficulty"`
}

// QuestionReview extends QuestionContent with the vaulted option; only ever
// populated once the match is completed.
type QuestionReview struct {
	QuestionContent
	CorrectOption int `json:"correct_option"`
}

// ParticipantProgress summarizes a participant without exposing answers.
type ParticipantProgress struct {
	UserID        uuid.UUID `json:"user_id"`
	AnsweredCount int       `json:"answered_count"`
	Completed     bool      `json:"completed"`
}

// ParticipantReview carries full per-question answers for the results view.
type ParticipantReview struct {
	UserID           uuid.UUID                      `json:"user_id"`
	Answers          []repository.ParticipantAnswer `json:"answers"`
	TotalScore       *int                           `json:"total_score,omitempty"`
	TotalTimeSeconds *int                           `json:"total_time_seconds,omitempty"`
}

// DetailsView is the in-progress projection served to participants before
// completion. AnswerVault data is structurally absent.
type DetailsView struct {
	MatchID              uuid.UUID             `json:"match_id"`
	Status               string                `json:"status"`
	IsPrivate            bool                  `json:"is_private"`
	JoinCode             *string               `json:"join_code,omitempty"`
	CurrentQuestionIndex *int16                `json:"current_question_index,omitempty"`
	Questions            []QuestionContent     `json:"questions"`
	Participants         []ParticipantProgress `json:"participants"`
	ExpiresAt            time.Time             `json:"expires_at"`
}

// ResultView is the post-completion projection including vault data.
type ResultView struct {
	MatchID      uuid.UUID           `json:"match_id"`
	Status       string              `json:"status"`
	WinnerID     *uuid.UUID          `json:"winner_id,omitempty"`
	IsDraw       bool                `json:"is_draw"`
	Questions    []QuestionReview    `json:"questions"`
	Participants []ParticipantReview `json:"participants"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// PartialView is servable at any status; answers appear only if completed.
type PartialView struct {
	MatchID      uuid.UUID             `json:"match_id"`
	Status       string                `json:"status"`
	Participants []ParticipantProgress `json:"participants"`
	Result       *ResultView           `json:"result,omitempty"`
}
