package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/dto"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"go.uber.org/zap"
)

// UserHandler handles account management for the authenticated user
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the profile loaded by LoadUser
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	respondOK(c, http.StatusOK, dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

// UpdateProfile changes nickname and/or email
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.GetString(ContextUserID), service.ProfileUpdate{
		Nickname: req.Nickname,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

// ChangePassword replaces the password and ends every session
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), c.GetString(ContextUserID), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgPasswordChanged)
}

// DeleteAccount removes the account with its sessions and payment history
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.userService.DeleteAccount(c.Request.Context(), c.GetString(ContextUserID)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgAccountDeleted)
}

// ListPayments returns the payment history
func (h *UserHandler) ListPayments(c *gin.Context) {
	payments, err := h.userService.ListPayments(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := dto.PaymentsResponse{Payments: make([]dto.PaymentResponse, 0, len(payments))}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, dto.NewPaymentResponse(p))
	}

	respondOK(c, http.StatusOK, resp)
}

// Premium reports the premium entitlement. RequirePremium guards the route.
func (h *UserHandler) Premium(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	respondOK(c, http.StatusOK, dto.PremiumResponse{
		PremiumStatus:    string(user.PremiumStatus),
		PremiumExpiresAt: user.PremiumExpiresAt,
	})
}
