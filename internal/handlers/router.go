package handlers

import (
	"net/http"

	"event-photo-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router bundles everything the HTTP routes need
type Router struct {
	Users       *UserHandler
	Events      *EventHandler
	Photos      *PhotoHandler
	WebSocket   *WebSocketHandler
	Validator   middleware.TokenValidator
	JoinLimiter *middleware.KeyedRateLimiter
}

// Handler builds the chi router
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", rt.Users.Register)
		r.Post("/auth/login", rt.Users.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.Validator))

			r.Get("/users/me", rt.Users.GetMe)
			r.Put("/users/me/push-token", rt.Users.UpdatePushToken)

			r.Post("/events", rt.Events.CreateEvent)
			r.Get("/events", rt.Events.ListEvents)
			r.With(middleware.RateLimit(rt.JoinLimiter)).Post("/events/join-by-code", rt.Events.JoinByCode)

			r.Route("/events/{event_id}", func(r chi.Router) {
				r.Get("/", rt.Events.GetEvent)
				r.Post("/join", rt.Events.Join)
				r.Post("/cover", rt.Events.SetCover)
				r.Put("/cover", rt.Events.ConfirmCover)
				r.Get("/pending", rt.Events.ListPending)
				r.Post("/pending/{user_id}/approve", rt.Events.Approve)
				r.Post("/pending/{user_id}/reject", rt.Events.Reject)

				r.Get("/photos", rt.Photos.GetPhotos)
				r.Post("/photos/uploads", rt.Photos.RequestUploads)
				r.Get("/photos/quota", rt.Photos.GetQuota)
				r.Post("/photos/{photo_id}/confirm", rt.Photos.ConfirmUpload)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", rt.WebSocket.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
