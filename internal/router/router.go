package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pdfqa/internal/handlers"
	"pdfqa/internal/middleware"
	"pdfqa/internal/websocket"
)

// New builds the page router. A nil hub leaves /ws unrouted; a nil limiter
// leaves submissions unlimited.
func New(pageHandler *handlers.PageHandler, submitLimiter *middleware.RateLimiter, wsHub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/health", pageHandler.Health)
	r.Get("/", pageHandler.Page)

	if wsHub != nil {
		r.Get("/ws", wsHub.HandleWebSocket)
	}

	// ──── Form submissions ────
	r.Group(func(r chi.Router) {
		if submitLimiter != nil {
			r.Use(submitLimiter.Middleware)
		}
		r.Post("/index", pageHandler.IndexPDF)
		r.Post("/ask", pageHandler.Ask)
	})

	return r
}
