package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/dto"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"go.uber.org/zap"
)

// PaymentHandler receives purchases confirmed by the payment provider
type PaymentHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(userService service.UserService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		userService: userService,
		logger:      logger,
	}
}

// RequireWebhookSecret admits only callers presenting the shared webhook secret as a
// bearer token. An empty secret rejects every request.
func RequireWebhookSecret(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, logger, apperrors.ErrNoToken)
			return
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			logger.Warn("Payment webhook rejected", zap.String("ip", c.ClientIP()))
			respondError(c, logger, apperrors.ErrUnauthorized)
			return
		}

		c.Next()
	}
}

// RecordPayment stores a provider-confirmed purchase and upgrades premium status
// @Summary Payment provider webhook
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.PaymentWebhookRequest true "Confirmed purchase"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400,401,404,409 {object} dto.ErrorBody
// @Router /webhooks/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	payment, err := h.userService.RecordPurchase(c.Request.Context(), req.UserID, service.PurchaseInput{
		Provider:      req.Provider,
		ProductID:     req.ProductID,
		TransactionID: req.TransactionID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		Tier:          domain.PremiumStatus(req.Tier),
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, dto.NewPaymentResponse(payment))
}
