package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripmate/internal/models/request_models"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

const (
	SignatureHeader = "X-Signature"

	EventPaymentSucceeded = "payment.succeeded"

	maxWebhookBody = 1 << 20
)

// Verifier checks a webhook signature against the raw request body.
type Verifier interface {
	Verify(signature string, body []byte) error
}

// HMACVerifier expects a hex encoded HMAC-SHA256 of the body.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(signature string, body []byte) error {
	if len(v.secret) == 0 {
		return utils.ErrInvalidSignature
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(got) == 0 {
		return utils.ErrInvalidSignature
	}
	if !hmac.Equal(got, v.Sign(body)) {
		return utils.ErrInvalidSignature
	}
	return nil
}

func (v *HMACVerifier) Sign(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// PaymentEventHandler receives verified events.
type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, event request_models.PaymentEvent) error
}

type PaymentService interface {
	HandleWebhook(c *gin.Context)
}

type paymentService struct {
	verifier Verifier
	handler  PaymentEventHandler
}

func NewPaymentService(verifier Verifier, handler PaymentEventHandler) PaymentService {
	return &paymentService{verifier: verifier, handler: handler}
}

func (p *paymentService) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Log.Warn("webhook: read body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	if err := p.verifier.Verify(c.GetHeader(SignatureHeader), rawBody); err != nil {
		logger.Log.Warn("webhook: signature rejected", zap.String("trace_id", c.GetString("trace_id")))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid signature",
		})
		return
	}

	var event request_models.PaymentEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		logger.Log.Warn("webhook: invalid payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid webhook payload",
		})
		return
	}

	if err := p.handler.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		logger.Log.Error("webhook: handler failed",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process event",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// tripPaymentHandler marks trips paid on successful payment events and
// acknowledges everything else.
type tripPaymentHandler struct {
	trips TripServiceInterface
}

func NewTripPaymentHandler(trips TripServiceInterface) PaymentEventHandler {
	return &tripPaymentHandler{trips: trips}
}

func (h *tripPaymentHandler) HandlePaymentEvent(ctx context.Context, event request_models.PaymentEvent) error {
	if event.Type != EventPaymentSucceeded || event.TripID == "" {
		logger.Log.Info("webhook: event ignored", zap.String("event_id", event.ID), zap.String("type", event.Type))
		return nil
	}
	ref := event.Reference
	if ref == "" {
		ref = event.ID
	}
	return h.trips.MarkPaid(ctx, event.TripID, ref)
}
