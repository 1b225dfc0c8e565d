package routes

import (
	"net/http"

	"github.com/nzoschke/apartments/internal/app"
	"github.com/nzoschke/apartments/internal/handler"
	"github.com/nzoschke/apartments/internal/middleware"
	"github.com/nzoschke/apartments/internal/model"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg.ClientURL)
	apartment := handler.NewApartmentHandler(app.ApartmentService)
	user := handler.NewUserHandler(app.UserService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /ping", auth.Ping)
	mux.HandleFunc("GET /auth", auth.CurrentUser)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimit(app.RateLimiter)

	mux.HandleFunc("POST /login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /register", rateLimiter(auth.Register))
	mux.HandleFunc("GET /register/{provider}", rateLimiter(auth.SocialCallback))
	mux.HandleFunc("GET /confirm/{token}", auth.Confirm)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	writers := middleware.RequireRole(model.RoleRealtor, model.RoleAdmin)
	admins := middleware.RequireRole(model.RoleAdmin)

	// Apartments
	mux.HandleFunc("GET /apartments", middleware.RequireAuth(apartment.List))
	mux.HandleFunc("POST /apartments", writers(apartment.Create))
	mux.HandleFunc("PUT /apartments/{id}", writers(apartment.Update))
	mux.HandleFunc("DELETE /apartments/{id}", writers(apartment.Delete))

	// Users (self or admin is checked per account)
	mux.HandleFunc("GET /users", admins(user.List))
	mux.HandleFunc("POST /users", admins(user.Create))
	mux.HandleFunc("PUT /users/{id}", middleware.RequireAuth(user.Update))
	mux.HandleFunc("DELETE /users/{id}", middleware.RequireAuth(user.Delete))
	mux.HandleFunc("POST /users/{id}/image-upload", middleware.RequireAuth(user.UploadImage))

	// 404
	mux.HandleFunc("/", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.CORS(app.Cfg.ClientURL),
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService),
	)

	return handler
}
