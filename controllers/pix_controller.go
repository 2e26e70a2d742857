package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/Jojo244-329/server-app/apperrors"
	"github.com/Jojo244-329/server-app/models"
	"github.com/Jojo244-329/server-app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBodySize caps how much of a notification body is read.
const maxWebhookBodySize = 1 << 20

// PixController handles checkout and payment-notification requests.
type PixController struct {
	pixService     services.PixService
	webhookService services.WebhookService
	logger         *zap.Logger
}

// NewPixController creates a new PixController.
func NewPixController(pixSvc services.PixService, webhookSvc services.WebhookService, logger *zap.Logger) *PixController {
	return &PixController{pixService: pixSvc, webhookService: webhookSvc, logger: logger}
}

// GeneratePix handles POST /api/gerar-pix
func (pc *PixController) GeneratePix(ctx *gin.Context) {
	var req models.PixRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("Requisição inválida"))
		return
	}

	intent, appErr := pc.pixService.CreatePixPayment(ctx.Request.Context(), req)
	if appErr != nil {
		apperrors.Respond(ctx, appErr)
		return
	}

	ctx.JSON(http.StatusOK, intent)
}

// PixWebhook handles POST /api/pix-webhook. The sender always gets 200 once
// the notification was read; relay failures are only logged.
func (pc *PixController) PixWebhook(ctx *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			pc.logger.Error("Webhook handler panicked", zap.Any("panic", r))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Erro Webhook"})
		}
	}()

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBodySize)
	body, err := ctx.GetRawData()
	if err != nil {
		pc.logger.Warn("Failed to read webhook body", zap.Error(err), zap.Int64("limit", maxWebhookBodySize))
		ctx.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}

	var notification models.WebhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		pc.logger.Warn("Undecodable webhook body", zap.Error(err), zap.Int("size", len(body)))
		ctx.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}

	outcome := pc.webhookService.HandlePaymentWebhook(ctx.Request.Context(), notification)
	pc.logger.Debug("Webhook processed", zap.String("outcome", string(outcome)))

	ctx.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Health handles GET /health
func (pc *PixController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "pix-service"})
}
