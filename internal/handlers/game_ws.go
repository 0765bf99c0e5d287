// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arcadehall/pong-service/internal/game"
	"github.com/arcadehall/pong-service/internal/middleware"
)

// clientMessage is the closed set of inbound message shapes. Unknown types
// and messages missing a type are ignored without terminating the connection.
type clientMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	Pressed   *bool  `json:"pressed,omitempty"` // defaults to true when omitted
	Alias     string `json:"alias,omitempty"`
}

const outboundBuffer = 64

// GameWSHandler upgrades the connection, registers the player with the
// session manager and runs the read loop until the socket closes. The
// transport-level close triggers the same disconnect handling as an explicit
// leave_game message.
func GameWSHandler(logger *logrus.Logger, m *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "missing userId query parameter", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error for user %s: %v", userID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path, userID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Outbound events are queued and written by a single pump so per-tick
		// broadcasts keep their order. The queue never blocks the simulation:
		// when a slow consumer fills it, events are dropped and logged.
		out := make(chan game.Event, outboundBuffer)
		client := &game.Client{ID: uuid.New(), UserID: userID}
		client.SendFn = func(ev game.Event) {
			select {
			case out <- ev:
			default:
				logger.Warnf("outbound queue full for user %s; dropping %s", userID, ev.Type)
			}
		}

		go writePump(ctx, c, out, logger, userID)

		m.Connect(client)

		readErr := readMessages(ctx, c, m, client, logger)

		// Read loop exited: voluntary leave, client close or network failure
		// all converge here.
		m.Disconnect(client)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, userID, readErr)
	}
}

// writePump drains the outbound queue onto the socket. Each write gets its
// own timeout so one stalled send cannot wedge the pump; write failures are
// logged and the loop keeps going until the context ends (closure itself is
// detected by the read side).
func writePump(ctx context.Context, c *websocket.Conn, out <-chan game.Event, logger *logrus.Logger, userID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-out:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Errorf("failed to marshal %s event for user %s: %v", ev.Type, userID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write %s event to user %s: %v", ev.Type, userID, err)
			}
		}
	}
}

// readMessages decodes and dispatches inbound messages until the connection
// closes. Malformed JSON and unrecognized types are protocol errors recovered
// locally: logged, ignored, connection stays open.
func readMessages(ctx context.Context, c *websocket.Conn, m *game.Manager, client *game.Client, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Debugf("ignoring non-text message from user %s", client.UserID)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid JSON from user %s: %v", client.UserID, err)
			continue
		}

		switch msg.Type {
		case "player_move":
			pressed := true
			if msg.Pressed != nil {
				pressed = *msg.Pressed
			}
			switch game.Direction(msg.Direction) {
			case game.DirUp, game.DirDown, game.DirStop:
				m.HandleInput(client, game.Direction(msg.Direction), pressed)
			default:
				logger.Debugf("ignoring player_move with direction %q from user %s", msg.Direction, client.UserID)
			}

		case "leave_game":
			m.Disconnect(client)

		case "set_alias":
			// Cosmetic only; must never reach room state.
			client.Alias = msg.Alias
			logger.Debugf("user %s set alias %q", client.UserID, msg.Alias)

		case "":
			logger.Debugf("ignoring message without type from user %s", client.UserID)

		default:
			logger.Debugf("ignoring unknown message type %q from user %s", msg.Type, client.UserID)
		}
	}
}
