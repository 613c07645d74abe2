package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/dto"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"go.uber.org/zap"
)

// Response messages
const (
	MsgRegistered         = "Registration successful. Please check your email to verify your account."
	MsgEmailVerified      = "Email verified successfully"
	MsgVerificationResent = "If the account exists and is not verified, a verification email has been sent"
	MsgLoggedOut          = "Logged out successfully"
	MsgResetRequested     = "If the account exists, a password reset email has been sent"
	MsgPasswordReset      = "Password has been reset. Please log in again."
	MsgPasswordChanged    = "Password changed successfully. Please log in again."
	MsgAccountDeleted     = "Account deleted successfully"
)

const tokenType = "Bearer"

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.MessageResponse
// @Failure 400,409 {object} dto.ErrorBody
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusCreated, MsgRegistered)
}

// Login handles user login
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, sessionMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, authResponse(result))
}

// GoogleLogin handles sign-in with a Google ID token
// @Summary Login with Google
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.GoogleLoginRequest true "Google ID token"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorBody
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req dto.GoogleLoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.authService.GoogleLogin(c.Request.Context(), req.IDToken, sessionMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, authResponse(result))
}

// VerifyEmail consumes an email verification token
// @Summary Verify email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Verification token"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorBody
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgEmailVerified)
}

// ResendVerification sends a new verification email
// @Summary Resend verification email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Email"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorBody
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgVerificationResent)
}

// RefreshToken exchanges a refresh token for a new access token
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.AccessTokenResponse
// @Failure 401 {object} dto.ErrorBody
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, dto.AccessTokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   result.ExpiresIn,
	})
}

// Logout ends the session of a refresh token
// @Summary Logout
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LogoutRequest true "Refresh token"
// @Success 200 {object} dto.MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, bindingError(err))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgLoggedOut)
}

// ForgotPassword emails a password reset link
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Email"
// @Success 200 {object} dto.MessageResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgResetRequested)
}

// ResetPassword sets a new password with a reset token
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorBody
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, http.StatusOK, MsgPasswordReset)
}

// GetProfile handles getting current user profile
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserEnvelope
// @Failure 401 {object} dto.ErrorBody
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.authService.GetProfile(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

func sessionMeta(c *gin.Context) domain.SessionMeta {
	return domain.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User: dto.NewUserSummary(result.User),
		Tokens: dto.Tokens{
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
			TokenType:    tokenType,
			ExpiresIn:    result.Tokens.ExpiresIn,
		},
	}
}
