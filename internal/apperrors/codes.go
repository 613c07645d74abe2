package apperrors

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeUserExists         Code = "USER_EXISTS"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   Code = "EMAIL_NOT_VERIFIED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeAlreadyVerified    Code = "ALREADY_VERIFIED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNoToken            Code = "NO_TOKEN"
	CodePasswordMismatch   Code = "PASSWORD_MISMATCH"
	CodeSamePassword       Code = "SAME_PASSWORD"
	CodePasswordNotSet     Code = "PASSWORD_NOT_SET"
	CodeForbidden          Code = "FORBIDDEN"
	CodePremiumRequired    Code = "PREMIUM_REQUIRED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

var (
	// ErrInvalidCredentials is the single failure for every login miss so
	// callers cannot tell an unknown email from a wrong password.
	ErrInvalidCredentials = Unauthorized(CodeInvalidCredentials, "Invalid email or password")

	ErrEmailNotVerified = Unauthorized(CodeEmailNotVerified, "Please verify your email before logging in")

	ErrUserExists = Conflict(CodeUserExists, "A user with this email already exists")

	ErrEmailTaken = Conflict(CodeConflict, "Email is already in use")

	ErrInvalidToken = Validation(CodeInvalidToken, "Invalid or expired token")

	ErrAlreadyVerified = Validation(CodeAlreadyVerified, "Email is already verified")

	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// wrong type, unknown session, expired session.
	ErrInvalidRefreshToken = Unauthorized(CodeUnauthorized, "Invalid or expired refresh token")

	ErrInvalidExternalToken = Unauthorized(CodeUnauthorized, "Invalid Google token")

	ErrUnauthorized = Unauthorized(CodeUnauthorized, "Invalid or expired token")

	ErrNoToken = Unauthorized(CodeNoToken, "Authorization header is required")

	ErrPasswordMismatch = Validation(CodePasswordMismatch, "Current password is incorrect")

	ErrSamePassword = Validation(CodeSamePassword, "New password must be different from the current password")

	ErrPasswordNotSet = Validation(CodePasswordNotSet, "This account has no password; sign in with Google")

	ErrVerificationRequired = Forbidden(CodeEmailNotVerified, "Email verification required")

	ErrPremiumRequired = Forbidden(CodePremiumRequired, "Premium subscription required")

	ErrUserNotFound = NotFound(CodeNotFound, "User not found")

	ErrPaymentExists = Conflict(CodeConflict, "Payment has already been recorded")

	ErrRateLimited = &Error{Kind: KindRateLimited, Code: CodeRateLimitExceeded, Message: "Rate limit exceeded"}
)
