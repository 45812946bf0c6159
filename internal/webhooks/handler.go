package webhooks

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/response"
)

// Handler acknowledges inbound webhooks. No processing happens yet; the
// endpoint is reserved for a future CI integration.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a webhooks handler.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// GitHub handles POST /webhooks/github. The body is drained and discarded;
// any payload is acknowledged.
func (h *Handler) GitHub(c *gin.Context) {
	n, _ := io.Copy(io.Discard, c.Request.Body)
	h.logger.Info("GitHub webhook received",
		zap.String("event", c.GetHeader("X-GitHub-Event")),
		zap.Int64("payload_bytes", n),
	)
	response.Acked(c, "Webhook received")
}
