// internal/handlers/table_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "blackjack"

const wsWriteTimeout = 3 * time.Second

// TableMessage is a client request on the table socket.
type TableMessage struct {
	Type string `json:"type"` // start, hit, stand, double, split, insurance, state, leave, ping
	Bet  int64  `json:"bet,omitempty"`
	Hand *int   `json:"hand,omitempty"`
}

// TableEvent is a server message on the table socket.
type TableEvent struct {
	Type   string         `json:"type"` // state, error, pong
	State  *game.Snapshot `json:"state,omitempty"`
	Error  string         `json:"error,omitempty"`
	Status int            `json:"status,omitempty"`
}

// TableWSHandler serves the table over a WebSocket. The session is resolved before the
// upgrade so a new guest still receives its cookie.
func (s *Server) TableWSHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.EnsureEphemeralUser(w, r)
	if err != nil {
		s.Logger.Errorf("session: %v", err)
		writeError(w, http.StatusInternalServerError, "could not establish a session")
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for player %s: %v", playerID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "internal server error during handler exit")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must use the 'blackjack' subprotocol")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snap, err := s.Table.State(ctx, playerID)
	if err != nil {
		c.Close(TableFailureError, "table unavailable")
		return
	}
	if err := s.writeEvent(ctx, c, TableEvent{Type: "state", State: snap}); err != nil {
		return
	}

	err = s.readTableMessages(ctx, c, playerID)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
	if err == nil {
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readTableMessages answers each request with the new state or an error. It returns nil
// when the client closes normally.
func (s *Server) readTableMessages(ctx context.Context, c *websocket.Conn, playerID uuid.UUID) error {
	log := s.Logger.WithField("player", playerID)
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg TableMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debugf("invalid JSON received: %v", err)
			if err := s.writeEvent(ctx, c, TableEvent{Type: "error", Error: "invalid JSON format", Status: http.StatusBadRequest}); err != nil {
				return err
			}
			continue
		}

		log.Debugf("received %q", msg.Type)
		if msg.Type == "ping" {
			if err := s.writeEvent(ctx, c, TableEvent{Type: "pong"}); err != nil {
				return err
			}
			continue
		}

		snap, err := s.dispatch(ctx, playerID, msg)
		ev := TableEvent{Type: "state", State: snap}
		if err != nil {
			status, text := tableErrorStatus(err)
			ev = TableEvent{Type: "error", Error: text, Status: status}
		}
		if err := s.writeEvent(ctx, c, ev); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, playerID uuid.UUID, msg TableMessage) (*game.Snapshot, error) {
	hand := actionRequest{Hand: msg.Hand}.handIndex()
	switch msg.Type {
	case "start":
		return s.Table.Start(ctx, playerID, msg.Bet)
	case "hit":
		return s.Table.Hit(ctx, playerID, hand)
	case "stand":
		return s.Table.Stand(ctx, playerID, hand)
	case "double":
		return s.Table.Double(ctx, playerID, hand)
	case "split":
		return s.Table.Split(ctx, playerID, hand)
	case "insurance":
		return s.Table.Insurance(ctx, playerID)
	case "state":
		return s.Table.State(ctx, playerID)
	case "leave":
		if err := s.Table.Leave(ctx, playerID); err != nil {
			return nil, err
		}
		return s.Table.State(ctx, playerID)
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", game.ErrIllegalAction, msg.Type)
	}
}

func (s *Server) writeEvent(ctx context.Context, c *websocket.Conn, ev TableEvent) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, c, ev); err != nil {
		s.Logger.WithFields(logrus.Fields{"event": ev.Type}).Warnf("failed to write to WebSocket: %v", err)
		return err
	}
	return nil
}
