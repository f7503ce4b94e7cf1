package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lycan/internal/config"
	"lycan/internal/handlers"
	localMiddleware "lycan/internal/middleware"
	"lycan/internal/store"
)

// SetupServer builds the router over a fresh store. Split out of main so
// tests can mount the full stack against httptest.
func SetupServer(cfg *config.ServerConfig) (http.Handler, *handlers.Handler) {
	gameStore := store.NewMemoryStore(cfg)
	h := handlers.New(gameStore, cfg)

	r := chi.NewRouter()

	// Chi's built-in middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Our custom middleware
	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	rateLimiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
	r.Use(rateLimiter.Middleware())

	// Every route except the event stream runs under the request timeout;
	// SSE connections are long-lived and manage their own lifecycle.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		// Match lifecycle
		r.Post("/match/new", h.CreateMatch)
		r.Get("/match/{code}", h.MatchState)
		r.Post("/match/{code}/join", h.JoinMatch)
		r.Post("/match/{code}/players/{playerID}/leave", h.LeaveMatch)
		r.Post("/match/{code}/start", h.StartMatch)
		r.Post("/match/{code}/reset", h.ResetMatch)
		r.Get("/match/{code}/qr", h.JoinQR)

		// In-game submissions and moderator controls
		r.Post("/match/{code}/action", h.SubmitAction)
		r.Post("/match/{code}/vote", h.CastVote)
		r.Get("/match/{code}/votes", h.Votes)
		r.Get("/match/{code}/votes/status", h.VoteStatus)
		r.Post("/match/{code}/phase/end", h.EndPhase)

		// Health check endpoints
		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if gameStore == nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Store not ready"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
	})

	// Event stream
	r.Get("/sse/match/{code}", h.StreamMatch)

	return r, h
}
