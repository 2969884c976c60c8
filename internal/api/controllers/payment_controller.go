package controllers

import (
	"github.com/gin-gonic/gin"

	"tripmate/internal/services"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// HandleWebhook godoc
// @Summary Payment provider webhook
// @Description Verifies the X-Signature header against the raw body and records the payment
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	p.paymentService.HandleWebhook(c)
}
