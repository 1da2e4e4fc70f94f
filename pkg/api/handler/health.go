package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/movelearn/tutor/pkg/api/dto"
)

// Version is reported by the health endpoints.
var Version = "1.0.0"

// Health godoc
// @Summary      Health check
// @Description  Returns server health, version and LLM provider
// @Tags         global
// @Produce      json
// @Success      200 {object} dto.HealthResponse
// @Router       /health [get]
func Health(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:   "healthy",
			Version:  Version,
			Provider: provider,
		})
	}
}
