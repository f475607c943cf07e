// Package router assembles the HTTP surface of the notes API.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vedran77/notes/internal/ratelimit"
	"github.com/vedran77/notes/internal/service"
	"github.com/vedran77/notes/internal/transport/http/handlers"
	"github.com/vedran77/notes/internal/transport/http/middleware"
	"github.com/vedran77/notes/internal/transport/ws"
)

type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

type Deps struct {
	AuthService *service.AuthService
	NoteService *service.NoteService
	Tokens      TokenVerifier
	Limiter     ratelimit.Limiter
	Throttle    ratelimit.Throttle
	// ClientIP keys rate limits; nil means the peer address.
	ClientIP func(r *http.Request) string
	// Hub is optional; /ws is only mounted when it is set.
	Hub    *ws.Hub
	Logger zerolog.Logger
}

// New returns the full handler chain: CORS, request logging, rate limiting,
// then the route table.
func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.AuthService, d.Logger)
	noteHandler := handlers.NewNoteHandler(d.NoteService, d.Logger)

	auth := middleware.Auth(d.Tokens)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Protected - Auth
	mux.Handle("POST /api/auth/logout", auth(http.HandlerFunc(authHandler.Logout)))

	// Protected - Notes
	mux.Handle("GET /api/notes", auth(http.HandlerFunc(noteHandler.List)))
	mux.Handle("POST /api/notes", auth(http.HandlerFunc(noteHandler.Create)))
	mux.Handle("GET /api/notes/search", auth(http.HandlerFunc(noteHandler.Search)))
	mux.Handle("GET /api/notes/{id}", auth(http.HandlerFunc(noteHandler.Get)))
	mux.Handle("PUT /api/notes/{id}", auth(http.HandlerFunc(noteHandler.Update)))
	mux.Handle("DELETE /api/notes/{id}", auth(http.HandlerFunc(noteHandler.Delete)))
	mux.Handle("POST /api/notes/share/{id}", auth(http.HandlerFunc(noteHandler.Share)))

	if d.Hub != nil {
		mux.HandleFunc("GET /ws", ws.ServeWS(d.Hub, d.Tokens))
	}

	var h http.Handler = mux
	if d.Limiter != nil {
		h = ratelimit.Middleware(d.Limiter, ratelimit.Config{
			KeyFunc:  d.ClientIP,
			SkipFunc: func(r *http.Request) bool { return r.URL.Path == "/health" },
			OnLimited: func(w http.ResponseWriter, r *http.Request) {
				handlers.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			},
			Throttle: d.Throttle,
			Logger:   d.Logger,
		})(h)
	}
	h = middleware.RequestLogger(d.Logger)(h)
	return middleware.CORS(h)
}
