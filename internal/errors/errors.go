package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNotFound is returned when the addressed user does not exist.
	ErrAccountNotFound = errors.New("user not found")
	// ErrInvalidOTP is returned when no OTP is pending or the candidate does not match.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrExpiredOTP is returned when the pending OTP is past its expiry.
	ErrExpiredOTP = errors.New("OTP expired")
	// ErrAlreadyVerified is returned when the account is already verified.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrTwoFactorAlreadyEnabled is returned by setup when 2FA is on.
	ErrTwoFactorAlreadyEnabled = errors.New("2FA is already enabled. Disable it first to set up again")
	// ErrTwoFactorNotSetUp is returned when enabling without a pending secret.
	ErrTwoFactorNotSetUp = errors.New("2FA not set up. Please set up 2FA first")
	// ErrTwoFactorNotEnabled is returned when an operation needs 2FA on.
	ErrTwoFactorNotEnabled = errors.New("2FA is not enabled for this account")
	// ErrInvalidTwoFactorCode is returned for a rejected TOTP or backup code.
	ErrInvalidTwoFactorCode = errors.New("invalid verification code")
	// ErrInvalidPassword is returned when re-authentication fails.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidRefreshToken is returned for a bad, revoked or rotated refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken is returned for a refresh token past its expiry.
	ErrExpiredRefreshToken = errors.New("refresh token expired. Please login again")
	// ErrMissingRefreshToken is returned when the refresh cookie is absent.
	ErrMissingRefreshToken = errors.New("no refresh token provided")
	// ErrRateLimited is returned when admission control rejects a request.
	ErrRateLimited = errors.New("too many attempts. Try again later")
	// ErrLoginBlocked is returned when the risk engine blocks a login.
	ErrLoginBlocked = errors.New("login blocked due to suspicious activity")
	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("unauthorized. Login Again")
	// ErrInvalidRole is returned when a role outside the known set is requested.
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbidden is returned when the session's role is not allowed.
	ErrForbidden = errors.New("forbidden: insufficient permissions")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
	}
}

var mappings = []struct {
	err    error
	status int
	msg    string
	code   string
}{
	{ErrValidation, http.StatusBadRequest, "Missing Details", "VALIDATION_ERROR"},
	{ErrInvalidRole, http.StatusBadRequest, "Invalid role. Must be user, moderator, or admin", "INVALID_ROLE"},
	{ErrDuplicateEmail, http.StatusBadRequest, "User already exists", "DUPLICATE_EMAIL"},
	{ErrInvalidCredentials, http.StatusBadRequest, "Invalid email or password", "INVALID_CREDENTIALS"},
	{ErrAccountNotFound, http.StatusNotFound, "User not found", "ACCOUNT_NOT_FOUND"},
	{ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP", "INVALID_OTP"},
	{ErrExpiredOTP, http.StatusBadRequest, "OTP expired", "EXPIRED_OTP"},
	{ErrAlreadyVerified, http.StatusBadRequest, "Account already verified", "ALREADY_VERIFIED"},
	{ErrTwoFactorAlreadyEnabled, http.StatusBadRequest, "2FA is already enabled. Disable it first to set up again.", "TWO_FACTOR_ALREADY_ENABLED"},
	{ErrTwoFactorNotSetUp, http.StatusBadRequest, "2FA not set up. Please set up 2FA first.", "TWO_FACTOR_NOT_SET_UP"},
	{ErrTwoFactorNotEnabled, http.StatusBadRequest, "2FA is not enabled for this account", "TWO_FACTOR_NOT_ENABLED"},
	{ErrInvalidTwoFactorCode, http.StatusBadRequest, "Invalid verification code", "INVALID_TOTP_OR_BACKUP_CODE"},
	{ErrInvalidPassword, http.StatusBadRequest, "Invalid password", "INVALID_PASSWORD"},
	{ErrMissingRefreshToken, http.StatusUnauthorized, "No refresh token provided", "MISSING_REFRESH_TOKEN"},
	{ErrInvalidRefreshToken, http.StatusForbidden, "Invalid refresh token", "INVALID_REFRESH_TOKEN"},
	{ErrExpiredRefreshToken, http.StatusForbidden, "Refresh token expired. Please login again", "EXPIRED_REFRESH_TOKEN"},
	{ErrRateLimited, http.StatusTooManyRequests, "Too many login attempts. Try again in 15 minutes.", "RATE_LIMITED"},
	{ErrLoginBlocked, http.StatusForbidden, "Login blocked due to suspicious activity", "LOGIN_BLOCKED"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized. Login Again", "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "Forbidden: Insufficient permissions", "FORBIDDEN"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything outside the
// taxonomy becomes a generic 500 so internal detail never reaches clients.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.msg, m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "Server error", "SERVER_ERROR")
}
