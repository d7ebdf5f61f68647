package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/config"
	"github.com/emilythestrangee/ideaboard/backend/internal/handlers"
	"github.com/emilythestrangee/ideaboard/backend/internal/middleware"
	"github.com/emilythestrangee/ideaboard/backend/internal/ratelimit"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	handler *handlers.Handler
	tokens  service.TokenService
	admins  middleware.AdminChecker
	limiter ratelimit.Limiter
}

// New wires the handlers and the request gates into a Server.
func New(
	cfg *config.Config,
	log *zap.Logger,
	handler *handlers.Handler,
	tokens service.TokenService,
	admins middleware.AdminChecker,
	limiter ratelimit.Limiter,
) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		handler: handler,
		tokens:  tokens,
		admins:  admins,
		limiter: limiter,
	}
}

// HTTPServer creates the configured http.Server
func (s *Server) HTTPServer() (*http.Server, error) {
	router, err := s.RegisterRoutes()
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           router,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}, nil
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.RequestLogger(s.log))
	r.Use(cors.New(s.corsConfig()))

	if !s.cfg.IsDevelopment() {
		filter, err := middleware.IPFilter(s.cfg.IPAllowList, s.cfg.IPDenyList, s.log)
		if err != nil {
			return nil, fmt.Errorf("ip filter: %w", err)
		}
		r.Use(filter)
	}

	authenticate := middleware.Authenticate(s.tokens)
	limit := middleware.RateLimit(s.limiter, s.log)

	r.GET("/", limit, s.handler.Health.Welcome)
	r.GET("/health", limit, s.handler.Health.Health)

	v1 := r.Group("/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		auth.POST("/register", limit, s.handler.Auth.Register)
		auth.POST("/login", limit, s.handler.Auth.Login)
		auth.POST("/refresh", limit, s.handler.Auth.Refresh)
		auth.POST("/logout", authenticate, limit, s.handler.Auth.Logout)

		// Idea routes (authentication required)
		ideas := v1.Group("/ideas")
		ideas.Use(authenticate, limit)
		{
			ideas.GET("", s.handler.Idea.ListIdeas)
			ideas.POST("", s.handler.Idea.CreateIdea)
			ideas.GET("/:id", s.handler.Idea.GetIdea)
			ideas.PUT("/:id", s.handler.Idea.UpdateIdea)
			ideas.DELETE("/:id", s.handler.Idea.DeleteIdea)
			ideas.PATCH("/:id/vote", s.handler.Idea.VoteIdea)
			ideas.POST("/:id/comments", s.handler.Comment.CreateComment)
		}

		// Moderation routes
		admin := v1.Group("/admin/ideas")
		admin.Use(authenticate, limit, middleware.RequireAdmin(s.admins, s.log))
		{
			admin.GET("", s.handler.Admin.ListIdeas)
			admin.PUT("/:id", s.handler.Admin.UpdateStatus)
			admin.DELETE("/:id", s.handler.Admin.DeleteIdea)
			admin.GET("/:id/audit", s.handler.Admin.AuditTrail)
		}
	}

	r.NoRoute(handlers.NotFound)

	return r, nil
}
