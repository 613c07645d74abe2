package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/dto"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "webhook-secret-that-is-at-least-32-characters"

type stubUserService struct {
	service.UserService
	userID string
	input  service.PurchaseInput
	calls  int
	err    error
}

func (s *stubUserService) RecordPurchase(_ context.Context, userID string, in service.PurchaseInput) (*domain.Payment, error) {
	s.calls++
	s.userID = userID
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Payment{ID: "p-1", UserID: userID, TransactionID: in.TransactionID, Tier: in.Tier}, nil
}

func webhookRouter(secret string, users service.UserService) *gin.Engine {
	router := gin.New()
	h := NewPaymentHandler(users, zap.NewNop())
	router.POST("/webhooks/payments", RequireWebhookSecret(secret, zap.NewNop()), h.RecordPayment)
	return router
}

func webhookRequest(t *testing.T, authorization string) *http.Request {
	t.Helper()
	body, err := json.Marshal(dto.PaymentWebhookRequest{
		UserID: "u-1", Provider: "revenuecat", ProductID: "lifetime", TransactionID: "tx-1",
		AmountCents: 4999, Currency: "usd", Tier: "PREMIUM_LIFETIME",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestRequireWebhookSecret_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		secret        string
		authorization string
		code          apperrors.Code
	}{
		{name: "missing header", secret: webhookSecret, code: apperrors.CodeNoToken},
		{name: "not bearer", secret: webhookSecret, authorization: "Basic " + webhookSecret, code: apperrors.CodeNoToken},
		{name: "wrong secret", secret: webhookSecret, authorization: "Bearer not-the-secret", code: apperrors.CodeUnauthorized},
		{name: "secret prefix", secret: webhookSecret, authorization: "Bearer " + webhookSecret[:10], code: apperrors.CodeUnauthorized},
		{name: "unconfigured secret", secret: "", authorization: "Bearer anything", code: apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUserService{}

			w, envelope := serve(webhookRouter(tt.secret, users), webhookRequest(t, tt.authorization))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, string(tt.code), envelope.Error.Code)
			assert.Zero(t, users.calls)
		})
	}
}

func TestRecordPayment_WithSecret(t *testing.T) {
	users := &stubUserService{}

	w, envelope := serve(webhookRouter(webhookSecret, users), webhookRequest(t, "Bearer "+webhookSecret))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, users.calls)
	assert.Equal(t, "u-1", users.userID)
	assert.Equal(t, "tx-1", users.input.TransactionID)
	assert.Equal(t, domain.PremiumLifetime, users.input.Tier)
}

func TestRecordPayment_UnknownUser(t *testing.T) {
	users := &stubUserService{err: apperrors.ErrUserNotFound}

	w, envelope := serve(webhookRouter(webhookSecret, users), webhookRequest(t, "Bearer "+webhookSecret))

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, string(apperrors.CodeNotFound), envelope.Error.Code)
}
