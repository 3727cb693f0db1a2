package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/sign"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-Signature"
	timestampHeader = "X-Timestamp"
)

// Vendors disagree on the tracking code field just like they disagree on
// status fields, so extraction tries candidates in order.
var trackingCodeFields = []string{"trackingCode", "tracking_code", "trackingNumber", "tracking_number", "code"}

type WebhookController interface {
	ReceiveTrackingUpdate(ctx *gin.Context)
}

type webhookController struct {
	status status.StatusUseCase
	cfg    config.WebhookConfig
	logger *logger.Logger
}

func NewWebhookController(statusUseCase status.StatusUseCase, cfg config.WebhookConfig, logger *logger.Logger) WebhookController {
	return &webhookController{
		status: statusUseCase,
		cfg:    cfg,
		logger: logger,
	}
}

// ReceiveTrackingUpdate handles an inbound vendor status push. The
// signature is verified against the raw body bytes exactly as received.
// Only authentication failures reject; every other outcome acknowledges
// with 200 so the vendor does not retry-storm us over our own internal
// errors.
func (c *webhookController) ReceiveTrackingUpdate(ctx *gin.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		c.logger.Warn("failed to read webhook body", zap.Error(err))
		ctx.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	if c.cfg.Secret == "" {
		c.logger.Warn("webhook signature verification disabled: no secret configured")
	}

	signature := ctx.GetHeader(signatureHeader)
	timestamp := ctx.GetHeader(timestampHeader)

	if err := sign.VerifyWebhook(body, signature, timestamp, c.cfg.Secret); err != nil {
		c.logger.Warn("webhook rejected",
			zap.Error(err),
			zap.String("remoteAddr", ctx.ClientIP()),
		)
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "invalid or missing signature",
		})
		return
	}

	// The payload shape is vendor-controlled: decode into a generic map
	// and probe candidate fields instead of binding a fixed schema.
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("webhook payload is not valid JSON", zap.Error(err))
		ctx.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	trackingCode := extractTrackingCode(payload)
	if trackingCode == "" {
		c.logger.Warn("webhook payload carries no tracking code")
		ctx.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	result := status.Normalize(payload, trackingCode)

	applied, err := c.status.Apply(ctx.Request.Context(), status.ApplyInput{
		TrackingCode:    trackingCode,
		State:           result.State,
		Detail:          result.Detail,
		VendorRawStatus: status.RawStatus(payload),
	})
	if err != nil {
		c.logger.Error("webhook reconciliation failed",
			zap.String("trackingCode", trackingCode),
			zap.Error(err),
		)
		ctx.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	ctx.JSON(http.StatusOK, WebhookResponse{
		Received: true,
		Outcome:  string(applied.Outcome),
	})
}

func extractTrackingCode(payload map[string]any) string {
	probe := payload
	if data, ok := payload["data"].(map[string]any); ok {
		probe = data
	}

	for _, field := range trackingCodeFields {
		if value, ok := probe[field].(string); ok && value != "" {
			return value
		}
	}

	// Some vendors put the code at the top level and the status under data.
	for _, field := range trackingCodeFields {
		if value, ok := payload[field].(string); ok && value != "" {
			return value
		}
	}

	return ""
}
