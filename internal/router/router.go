package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/handlers"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	sessionHandler *handlers.SessionHandler,
	framesHandler *handlers.FramesHandler,
	galleryHandler *handlers.GalleryHandler,
	wsHub *websocket.Hub,
	storagePath string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/signup", authHandler.Signup)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Frame Proxy (public, original wire contract) ────
		r.Post("/frames/generate", framesHandler.Generate)

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/subscription", userHandler.UpdateSubscription)
		})

		// ──── Creation Session Routes ────
		r.Route("/session", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", sessionHandler.Get)
			r.Put("/settings", sessionHandler.UpdateSettings)
			r.Post("/generate", sessionHandler.Generate)
			r.Post("/frames", sessionHandler.GenerateFrames)
			r.Post("/media", sessionHandler.UploadMedia)
			r.Delete("/media", sessionHandler.ClearMedia)
			r.Post("/playback/toggle", sessionHandler.TogglePlayback)
			r.Get("/download", sessionHandler.Download)
		})

		// ──── Gallery Routes ────
		r.Route("/gallery", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", galleryHandler.List)
			r.Delete("/{id}", galleryHandler.Delete)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	// Uploaded media served straight off disk; URLs here back session
	// previews and locally sourced videos.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(storagePath)))
	r.Get("/media/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	return r
}
