package router

import (
	"github.com/gin-gonic/gin"

	"github.com/switchyardhq/switchyard/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, webhook *handler.WebhookHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/webhooks/:source", webhook.HandleWebhook)
	}
}
