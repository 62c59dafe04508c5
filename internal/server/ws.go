package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	"github.com/quizduel/duel-platform/internal/events"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
	"github.com/quizduel/duel-platform/pkg/http/ws"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the web client origin once it is deployed
		return true
	},
}

// NewWSHandler upgrades authenticated requests and keeps the connection
// registered with the hub until the client disconnects.
func NewWSHandler(hub *ws.Hub, logger zerolog.Logger) http.HandlerFunc {
	log := logger.With().Str("component", "ws_handler").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			httperrors.RespondUnauthorized(w)
			return
		}

		raw, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := ws.NewConnection(raw)
		hub.Register(claims.UserID, conn)
		defer hub.Unregister(claims.UserID)

		// Read loop: we only expect pings; any read error ends the session.
		for {
			var msg ws.Message
			if err := raw.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == ws.TypePing {
				pong, err := ws.NewMessage(ws.TypePong, nil)
				if err != nil {
					continue
				}
				if err := conn.Send(pong); err != nil {
					return
				}
			}
		}
	}
}

// Notifier pushes domain events to connected players.
type Notifier struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

func NewNotifier(hub *ws.Hub, logger zerolog.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// HandleMatchCompleted pushes the final scoreboard to both players.
func (n *Notifier) HandleMatchCompleted(ctx context.Context, ev events.MatchCompleted) error {
	payload := ws.MatchCompletePayload{
		MatchID: ev.MatchID.String(),
		IsDraw:  ev.IsDraw,
	}
	if ev.WinnerID != nil {
		payload.WinnerID = ev.WinnerID.String()
	}
	for _, p := range ev.Players {
		payload.Players = append(payload.Players, ws.PlayerScore{
			UserID:           p.UserID.String(),
			Score:            p.Score,
			TimeSpentSeconds: p.TimeSpentSeconds,
		})
	}

	msg, err := ws.NewMessage(ws.TypeMatchComplete, payload)
	if err != nil {
		return err
	}
	for _, p := range ev.Players {
		if err := n.hub.SendToUser(p.UserID, msg); err != nil {
			n.logger.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("push failed")
		}
	}
	return nil
}

// HandleFinalStarted tells both finalists their match is live.
func (n *Notifier) HandleFinalStarted(ctx context.Context, ev events.FinalStarted) error {
	msg, err := ws.NewMessage(ws.TypeFinalStarted, ws.FinalStartedPayload{
		TournamentID: ev.TournamentID,
		MatchID:      ev.MatchID.String(),
		Player1ID:    ev.Player1ID.String(),
		Player2ID:    ev.Player2ID.String(),
	})
	if err != nil {
		return err
	}
	if err := n.hub.SendToUsers([]uuid.UUID{ev.Player1ID, ev.Player2ID}, msg); err != nil {
		n.logger.Warn().Err(err).Str("tournament_id", ev.TournamentID).Msg("push failed")
	}
	return nil
}

// HandleTournamentCompleted announces the champion.
func (n *Notifier) HandleTournamentCompleted(ctx context.Context, ev events.TournamentCompleted) error {
	msg, err := ws.NewMessage(ws.TypeTournamentComplete, ws.TournamentCompletePayload{
		TournamentID: ev.TournamentID,
		WinnerID:     ev.WinnerID.String(),
	})
	if err != nil {
		return err
	}
	if err := n.hub.SendToUsers([]uuid.UUID{ev.WinnerID, ev.CreatorID}, msg); err != nil {
		n.logger.Warn().Err(err).Str("tournament_id", ev.TournamentID).Msg("push failed")
	}
	return nil
}
