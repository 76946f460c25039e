// Package handlers serves the task tracker over HTTP and WebSocket.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	App            *app.App
	RateLimiter    *RateLimiter
	WSHub          *WSHub
	AllowedOrigins []string
	Log            *zap.Logger
}

// New builds a Handler and installs its hub as the app's notifier.
func New(a *app.App, limiter *RateLimiter, hub *WSHub, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if hub == nil {
		hub = NewWSHub(log)
	}
	a.SetNotifier(hub)
	return &Handler{
		App:            a,
		RateLimiter:    limiter,
		WSHub:          hub,
		AllowedOrigins: allowedOrigins,
		Log:            log,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendResultError writes a failed Result with the status its error kind
// maps to.
func sendResultError(w http.ResponseWriter, res app.Result) {
	sendError(w, res.Message, statusFor(res.Err))
}

func statusFor(err error) int {
	if errors.Is(err, auth.ErrUserExists) {
		return http.StatusConflict
	}
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Auth:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a body of at most 1MB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, "Bad JSON", http.StatusBadRequest)
		return false
	}
	return true
}
