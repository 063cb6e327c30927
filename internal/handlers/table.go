package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/game"
)

// actionRequest is the body of every table POST. Hand defaults to the hand in play.
type actionRequest struct {
	Bet  int64 `json:"bet"`
	Hand *int  `json:"hand,omitempty"`
}

func (a actionRequest) handIndex() int {
	if a.Hand == nil {
		return game.ActiveHand
	}
	return *a.Hand
}

// tableAction runs one table operation for the caller.
type tableAction func(ctx context.Context, playerID uuid.UUID, req actionRequest) (*game.Snapshot, error)

func (s *Server) serveTable(w http.ResponseWriter, r *http.Request, fn tableAction) {
	playerID, err := s.EnsureEphemeralUser(w, r)
	if err != nil {
		s.Logger.Errorf("session: %v", err)
		writeError(w, http.StatusInternalServerError, "could not establish a session")
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	snap, err := fn(r.Context(), playerID, req)
	if err != nil {
		status, msg := tableErrorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) StartHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, req actionRequest) (*game.Snapshot, error) {
		return s.Table.Start(ctx, id, req.Bet)
	})
}

func (s *Server) HitHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, req actionRequest) (*game.Snapshot, error) {
		return s.Table.Hit(ctx, id, req.handIndex())
	})
}

func (s *Server) StandHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, req actionRequest) (*game.Snapshot, error) {
		return s.Table.Stand(ctx, id, req.handIndex())
	})
}

func (s *Server) DoubleHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, req actionRequest) (*game.Snapshot, error) {
		return s.Table.Double(ctx, id, req.handIndex())
	})
}

func (s *Server) SplitHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, req actionRequest) (*game.Snapshot, error) {
		return s.Table.Split(ctx, id, req.handIndex())
	})
}

func (s *Server) InsuranceHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, _ actionRequest) (*game.Snapshot, error) {
		return s.Table.Insurance(ctx, id)
	})
}

func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, _ actionRequest) (*game.Snapshot, error) {
		return s.Table.State(ctx, id)
	})
}

// LeaveHandler clears a finished round and answers with the empty table.
func (s *Server) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, r, func(ctx context.Context, id uuid.UUID, _ actionRequest) (*game.Snapshot, error) {
		if err := s.Table.Leave(ctx, id); err != nil {
			return nil, err
		}
		return s.Table.State(ctx, id)
	})
}
