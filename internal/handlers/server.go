// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/middleware"
	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/jason-s-yu/blackjack/internal/table"
	"github.com/sirupsen/logrus"
)

// UserStore is the account storage the user endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (string, error)
	ClaimUser(ctx context.Context, u *models.User) error
}

// Server holds what the HTTP and WebSocket handlers share.
type Server struct {
	Table  *table.Table
	Users  UserStore
	Logger *logrus.Logger
}

func NewServer(tbl *table.Table, users UserStore, logger *logrus.Logger) *Server {
	return &Server{Table: tbl, Users: users, Logger: logger}
}

// Routes registers every endpoint behind the request logger.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", s.CreateUserHandler)
	mux.HandleFunc("POST /user/login", s.LoginHandler)
	mux.HandleFunc("POST /user/claim", s.ClaimEphemeralHandler)
	mux.HandleFunc("GET /user/stats", s.StatsHandler)

	// table endpoints
	mux.HandleFunc("GET /table/state", s.StateHandler)
	mux.HandleFunc("POST /table/start", s.StartHandler)
	mux.HandleFunc("POST /table/hit", s.HitHandler)
	mux.HandleFunc("POST /table/stand", s.StandHandler)
	mux.HandleFunc("POST /table/double", s.DoubleHandler)
	mux.HandleFunc("POST /table/split", s.SplitHandler)
	mux.HandleFunc("POST /table/insurance", s.InsuranceHandler)
	mux.HandleFunc("POST /table/leave", s.LeaveHandler)

	// table websocket
	mux.HandleFunc("GET /table/ws", s.TableWSHandler)

	return middleware.LogMiddleware(s.Logger)(mux)
}
