// Package handler holds the gin HTTP handlers for the ingest server.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/switchyardhq/switchyard/internal/service"
)

// WebhookHandler accepts provider webhooks on POST /webhooks/:source.
// Authentication is a shared token in X-Webhook-Token; per-provider
// signature verification is left to a fronting gateway.
type WebhookHandler struct {
	ingest service.IngestService
	token  string
}

func NewWebhookHandler(ingest service.IngestService, token string) *WebhookHandler {
	return &WebhookHandler{
		ingest: ingest,
		token:  token,
	}
}

func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	source := c.Param("source")

	if h.token != "" && c.GetHeader("X-Webhook-Token") != h.token {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Flatten headers for the mapper
	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	params := service.IngestParams{
		Source:    source,
		WebhookID: deliveryID(source, headers),
		Headers:   headers,
		Payload:   body,
	}

	// Carry the request's trace onto the queue so the worker can resume it.
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID := spanCtx.TraceID().String()
		params.TraceID = &traceID
	}

	result, err := h.ingest.Ingest(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "webhook ingest failed", "source", source, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest webhook"})
		return
	}

	if result.Duplicated {
		c.JSON(http.StatusOK, gin.H{
			"status":     "duplicate",
			"webhook_id": result.EventLog.WebhookID,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"webhook_id": result.EventLog.WebhookID,
		"event_type": result.EventType,
	})
}

// deliveryID extracts the provider's own delivery identifier when it sends
// one. Empty means ingest mints a UUID.
func deliveryID(source string, headers map[string]string) string {
	switch source {
	case "github":
		return headers["X-Github-Delivery"]
	case "linear":
		return headers["Linear-Delivery"]
	case "google":
		return headers["X-Goog-Message-Number"]
	default:
		return ""
	}
}
