package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/ws"
)

// HandleTableWebSocket handles real-time host and viewer connections
func HandleTableWebSocket(cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(cfg)
}
