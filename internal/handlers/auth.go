package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}

	res := h.App.Register(r.Context(), input.Username, input.Password)
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusCreated, messageResponse{Message: res.Message})
}

// Login handles POST /login. Attempts are limited per client IP.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		h.Log.Warn("login rate limit exceeded", zap.String("ip", ip))
		sendError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}

	sess, res := h.App.Login(r.Context(), input.Username, input.Password)
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		Username:  sess.Username,
		ExpiresAt: sess.ExpiresAt.UTC(),
		Message:   res.Message,
	})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	res := h.App.Logout(sess.Token)
	h.WSHub.CloseUser(sess.Username)
	sendJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}
