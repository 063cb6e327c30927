package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/blackjack/internal/game"
)

// maxBodyBytes bounds request bodies; every payload here is a few fields.
const maxBodyBytes = 1 << 16

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// tableErrorStatus maps table errors to HTTP statuses. Anything unrecognized is an
// internal failure whose details stay in the server log.
func tableErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusConflict, err.Error()
	case errors.Is(err, game.ErrIllegalAction):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, game.ErrInsufficientFunds):
		return http.StatusPaymentRequired, err.Error()
	default:
		return http.StatusInternalServerError, "the table could not complete the request"
	}
}
