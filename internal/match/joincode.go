package match

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// Join code alphabet leaves out 0, O, 1 and I so codes survive being read
// aloud or retyped.
const (
	joinCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	joinCodeLength   = 6

	maxJoinCodeAttempts = 10
)

func randomJoinCode() string {
	var b strings.Builder
	b.Grow(joinCodeLength)
	for i := 0; i < joinCodeLength; i++ {
		b.WriteByte(joinCodeAlphabet[rand.Intn(len(joinCodeAlphabet))])
	}
	return b.String()
}

// generateJoinCode draws random codes until one is free among live matches.
func (s *Service) generateJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		code := randomJoinCode()
		exists, err := s.store.JoinCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check join code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not find a free join code in %d attempts", maxJoinCodeAttempts)
}
