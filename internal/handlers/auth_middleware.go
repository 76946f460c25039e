package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type contextKey struct{}

var sessionKey = contextKey{}

// AuthMiddleware resolves the Bearer token to a session and stores it in
// the request context. WebSocket upgrades may pass the token as the
// "token" query parameter instead, since browsers cannot set headers there.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			sendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		sess, err := h.App.Authenticate(r.Context(), token)
		if err != nil {
			if !app.IsAuthError(err) {
				h.Log.Error("authentication failed", zap.Error(err))
			}
			sendError(w, apperr.Message(err), statusFor(err))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// sessionFrom returns the session AuthMiddleware attached to ctx.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}
