package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/movelearn/tutor/pkg/api/handler"
	"github.com/movelearn/tutor/pkg/api/middleware"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health and metrics (no auth required)
	health := handler.Health(s.config.Provider)
	s.engine.GET("/health", health)
	s.engine.GET("/healthz", health)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	ai := s.engine.Group("/api/ai-agent")
	ai.Use(middleware.Auth(s.config.APIKey))
	ai.Use(middleware.Quota(s.quota, s.metrics))

	assistantHandler := handler.NewAssistantHandler(s.svc)
	ai.POST("/session", assistantHandler.Session)
	ai.POST("/assistant-question", assistantHandler.Question)
	ai.POST("/assistant-error", assistantHandler.Error)

	// Swagger UI (only in DevMode)
	if s.config.DevMode {
		s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.log.Info("swagger ui enabled", "path", "/swagger/index.html")
	}
}
