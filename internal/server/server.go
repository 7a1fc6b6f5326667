package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/config"
	"github.com/abdcafe/backend/internal/handler"
	"github.com/abdcafe/backend/internal/middleware"
	"github.com/abdcafe/backend/internal/models"
	"github.com/abdcafe/backend/internal/repository"
	"github.com/abdcafe/backend/internal/service"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	log    *zap.Logger

	loginLimiter    *middleware.RateLimiter
	registerLimiter *middleware.RateLimiter
	refreshLimiter  *middleware.RateLimiter
}

// NewServer wires the auth core onto the HTTP router.
func NewServer(store repository.UserStore, cfg *config.Config, notifier service.Notifier, log *zap.Logger) *Server {
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.Default(),
		cfg:    cfg,
		log:    log,

		loginLimiter:    middleware.NewRateLimiter(cfg.RateLimit.Login.MaxRequests, cfg.RateLimit.Login.Window(), log),
		registerLimiter: middleware.NewRateLimiter(cfg.RateLimit.Register.MaxRequests, cfg.RateLimit.Register.Window(), log),
		refreshLimiter:  middleware.NewRateLimiter(cfg.RateLimit.Refresh.MaxRequests, cfg.RateLimit.Refresh.Window(), log),
	}

	s.setupRoutes(store, notifier)

	return s
}

func (s *Server) setupRoutes(store repository.UserStore, notifier service.Notifier) {
	tokens := service.NewTokenService([]byte(s.cfg.Auth.JWTSecret), s.cfg.AccessTokenTTL())
	authService := service.NewAuthService(store, tokens, notifier, s.log)
	authHandler := handler.NewAuthHandler(authService, s.log)

	s.router.Use(middleware.RequestID())

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authGroup := s.router.Group("/api/auth")
	{
		authGroup.POST("/login", s.loginLimiter.Middleware(), authHandler.Login)
		authGroup.POST("/register", s.registerLimiter.Middleware(), authHandler.Register)
		authGroup.POST("/refresh", s.refreshLimiter.Middleware(), authHandler.Refresh)

		authGroup.GET("/me", middleware.Authenticate(tokens, store, s.log), authHandler.Me)
		authGroup.POST("/logout", middleware.OptionalAuthenticate(tokens, store, s.log), authHandler.Logout)

		authGroup.GET("/users",
			middleware.Authenticate(tokens, store, s.log),
			middleware.RequireRoles(models.RoleAdmin),
			authHandler.ListUsers,
		)
	}
}

// StartSweepers launches the background cleanup of expired rate-limit
// windows. Returns once ctx is cancelled.
func (s *Server) StartSweepers(ctx context.Context) {
	go s.loginLimiter.StartSweeper(ctx, s.cfg.SweepInterval())
	go s.registerLimiter.StartSweeper(ctx, s.cfg.SweepInterval())
	go s.refreshLimiter.StartSweeper(ctx, s.cfg.SweepInterval())
}

func (s *Server) Run(addr string) {
	s.log.Info("Server starting", zap.String("addr", addr))
	if err := s.router.Run(addr); err != nil {
		s.log.Fatal("Server failed to start", zap.Error(err))
	}
}
