package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"shopsense-backend/internal/handlers"
	"shopsense-backend/internal/middleware"
	"shopsense-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	productHandler *handlers.ProductHandler,
	modalHandler *handlers.ModalHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	// Session creation rate limiter (10 req/min per IP)
	createLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(createLimiter.Middleware)
				r.Post("/", sessionHandler.Create)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/", sessionHandler.Get)
				r.Post("/messages", chatHandler.PostMessage)
				r.Put("/filters", productHandler.UpdateFilters)
				r.Put("/comparison", productHandler.ToggleComparison)
				r.Post("/comparison/summary", modalHandler.ComparisonSummary)
				r.Post("/reviews", modalHandler.Reviews)
				r.Post("/modal/close", modalHandler.CloseModal)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
