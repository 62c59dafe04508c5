package ws

import "encoding/json"

// MessageType constants for server -> client event push.
const (
	TypeMatchStarted       = "match_started"
	TypeOpponentCompleted  = "opponent_completed"
	TypeMatchComplete      = "match_complete"
	TypeMatchCancelled     = "match_cancelled"
	TypeBracketStarted     = "bracket_started"
	TypeFinalStarted       = "final_started"
	TypeTournamentComplete = "tournament_complete"
	TypeError              = "error"
	TypePing               = "ping"
	TypePong               = "pong"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// MatchStartedPayload is pushed to both players when a match activates.
type MatchStartedPayload struct {
	MatchID    string `json:"match_id"`
	OpponentID string `json:"opponent_id"`
}

// MatchCompletePayload is pushed when the second player finishes.
type MatchCompletePayload struct {
	MatchID  string        `json:"match_id"`
	WinnerID string        `json:"winner_id,omitempty"`
	IsDraw   bool          `json:"is_draw"`
	Players  []PlayerScore `json:"players"`
}

// PlayerScore summarizes one participant's final numbers.
type PlayerScore struct {
	UserID           string `json:"user_id"`
	Score            int    `json:"score"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// FinalStartedPayload announces the bracket final to tournament players.
type FinalStartedPayload struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	Player1ID    string `json:"player1_id"`
	Player2ID    string `json:"player2_id"`
}

// TournamentCompletePayload announces the tournament winner.
type TournamentCompletePayload struct {
	TournamentID string `json:"tournament_id"`
	WinnerID     string `json:"winner_id"`
}
