// Package scoring decides match outcomes from final participant tallies.
package scoring

import "github.com/google/uuid"

// PlayerFinal is one participant's final tally.
type PlayerFinal struct {
	UserID           uuid.UUID
	Score            int
	TotalTimeSeconds int
}

// Outcome is the decided result of a head-to-head match.
type Outcome struct {
	WinnerID *uuid.UUID
	IsDraw   bool
}

// Decide picks the winner: higher score wins; on equal scores the lower total
// time wins; equal on both is a draw.
func Decide(p1, p2 PlayerFinal) Outcome {
	switch {
	case p1.Score > p2.Score:
		return Outcome{WinnerID: &p1.UserID}
	case p2.Score > p1.Score:
		return Outcome{WinnerID: &p2.UserID}
	case p1.TotalTimeSeconds < p2.TotalTimeSeconds:
		return Outcome{WinnerID: &p1.UserID}
	case p2.TotalTimeSeconds < p1.TotalTimeSeconds:
		return Outcome{WinnerID: &p2.UserID}
	default:
		return Outcome{IsDraw: true}
	}
}
