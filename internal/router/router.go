package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"gloqe-backend/internal/handlers"
	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	sessionHandler *handlers.SessionHandler,
	progressHandler *handlers.ProgressHandler,
	documentHandler *handlers.DocumentHandler,
	gamificationHandler *handlers.GamificationHandler,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Progress saves arrive on every meaningful scroll; keep the limit
	// well above the debounced write rate (120 req/min per user).
	progressLimiter := middleware.NewRateLimiter(120, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study Session Routes ────
		r.Route("/study-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Post("/pause", sessionHandler.Pause)
			r.Post("/resume", sessionHandler.Resume)
			r.Post("/heartbeat", sessionHandler.Heartbeat)
			r.Post("/stop", sessionHandler.Stop)
			r.Get("/current", sessionHandler.Current)
		})

		// ──── Document & Progress Routes ────
		r.Route("/documents", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
			r.Get("/{id}/progress", progressHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(progressLimiter.Middleware)
				r.Put("/{id}/progress", progressHandler.Save)
			})
		})

		// ──── Gamification Routes ────
		r.Route("/gamification", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", gamificationHandler.Me)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/streak", dashboardHandler.Streak)
			r.Get("/recent", dashboardHandler.Recent)
			r.Get("/reports", dashboardHandler.Reports)
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Get("/preferences", userHandler.GetPreferences)
			r.Put("/preferences", userHandler.UpdatePreferences)
			r.Get("/favorites", userHandler.ListFavorites)
			r.Put("/favorites/{id}", userHandler.AddFavorite)
			r.Delete("/favorites/{id}", userHandler.RemoveFavorite)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
