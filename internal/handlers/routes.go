package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the API:
//
//	POST   /register
//	POST   /login
//	POST   /logout            (auth)
//	GET    /tasks             (auth)
//	POST   /tasks             (auth)
//	POST   /tasks/{id}/toggle (auth)
//	DELETE /tasks/{id}        (auth)
//	GET    /ws                (auth)
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(WithRequestLogging(h.Log))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Post("/logout", h.Logout)
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Post("/tasks/{id}/toggle", h.ToggleTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Get("/ws", h.HandleWebSocket)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// WithRequestLogging logs method, path, status and duration of every request.
func WithRequestLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", clientIP(r)),
			)
		})
	}
}
