package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/domain/auth"
	"github.com/ormeapp/orme/internal/app/domain/locations"
	"github.com/ormeapp/orme/internal/app/domain/proposals"
	"github.com/ormeapp/orme/internal/app/domain/statistics"
	"github.com/ormeapp/orme/internal/app/domain/user"
	"github.com/ormeapp/orme/internal/app/middleware"
	"github.com/ormeapp/orme/internal/pkg/config"
)

type AppHandlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Locations  *locations.Handler
	Proposals  *proposals.Handler
	Statistics *statistics.Handler
}

// Setup wires repositories, services and handlers and registers all routes.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers, validate := setupDependencies(dbPool, cfg, log)
	registerRoutes(r, handlers, validate)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, middleware.TokenValidator) {
	jwtService := auth.NewJWTService(cfg.JWT, log)

	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	userRepo := user.NewRepository(dbPool, log)
	locationRepo := locations.NewRepository(dbPool, log)
	proposalRepo := proposals.NewRepository(dbPool, log)
	statsRepo := statistics.NewRepository(dbPool, log)

	authService := auth.NewAuthService(authRepo, jwtService, cfg, log)
	userService := user.NewUserService(userRepo, log)
	locationService := locations.NewLocationService(locationRepo, userService, log)
	proposalService := proposals.NewProposalService(proposalRepo, locationRepo, log)
	statsService := statistics.NewService(statsRepo, log)

	handlers := &AppHandlers{
		Auth:       auth.NewHandler(authService, log),
		User:       user.NewHandler(userService, log),
		Locations:  locations.NewHandler(locationService, log),
		Proposals:  proposals.NewHandler(proposalService, log),
		Statistics: statistics.NewHandler(statsService, log),
	}

	validate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	return handlers, validate
}

func registerRoutes(r *gin.Engine, h *AppHandlers, validate middleware.TokenValidator) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.PUT("/password", middleware.AuthMiddleware(validate), h.Auth.UpdatePassword)
	}

	// Public read surface
	api.GET("/locations", h.Locations.List)
	api.GET("/locations/:id", h.Locations.Get)
	api.GET("/statistics", h.Statistics.Community)
	api.GET("/leaderboard", h.User.Leaderboard)
	api.GET("/levels", h.User.Levels)
	api.GET("/badges", h.User.Badges)
	api.GET("/users/:id", h.User.GetByID)

	// Authenticated surface
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(validate))
	{
		authed.GET("/me", h.User.Me)
		authed.POST("/locations", h.Locations.Create)

		authed.POST("/proposals", h.Proposals.Create)
		authed.GET("/proposals", h.Proposals.List)
		authed.GET("/proposals/:id", h.Proposals.Get)
		authed.POST("/proposals/:id/votes", h.Proposals.Vote)
	}
}
