package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/handlers"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/models"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	helpDeskHandler *handlers.HelpDeskHandler,
	eventHandler *handlers.EventHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
) {
	authRateLimit := middleware.DefaultAuthRateLimit()
	chatRateLimit := middleware.DefaultChatRateLimit()

	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(authRateLimit))

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/password/reset-request", authHandler.RequestPasswordReset)
		r.Post("/auth/password/reset", authHandler.ResetPassword)
		r.Post("/auth/mfa/verify", authHandler.VerifyMFA)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Post("/auth/mfa/enable", authHandler.EnableMFA)

		r.Get("/events", eventHandler.ListEvents)
		r.Post("/events", eventHandler.CreateEvent)
		r.Patch("/events/{id}", eventHandler.UpdateEvent)
		r.Delete("/events/{id}", eventHandler.DeleteEvent)

		r.With(middleware.RateLimitByIP(chatRateLimit)).Post("/helpdesk/messages", helpDeskHandler.SendMessage)
		r.Get("/helpdesk/messages", helpDeskHandler.GetHistory)

		// Agent and admin routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/helpdesk/queue", helpDeskHandler.GetQueue)
			r.Post("/helpdesk/queue/{userId}/reply", helpDeskHandler.ReplyToUser)
			r.Post("/helpdesk/chats/{chatId}/resolve", helpDeskHandler.ResolveChat)

			r.Get("/admin/users", adminHandler.ListUsers)
			r.Post("/admin/users", adminHandler.CreateUser)
		})
	})
}
