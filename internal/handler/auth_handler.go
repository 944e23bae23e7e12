package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"authcodelab/internal/auth"
	"authcodelab/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	otpService  service.OTPService
	cookies     auth.CookieWriter
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, otpService service.OTPService, cookies auth.CookieWriter) *AuthHandler {
	return &AuthHandler{authService: authService, otpService: otpService, cookies: cookies}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyAccountRequest carries the emailed verification code.
type VerifyAccountRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// SendResetOTPRequest names the account that forgot its password.
type SendResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the reset code and the new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// LoginResponse is returned by a password login.
type LoginResponse struct {
	Success     bool   `json:"success"`
	Requires2FA bool   `json:"requires2FA"`
	Message     string `json:"message"`
	Email       string `json:"email,omitempty"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates an unverified account and signs it in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	_, tokens, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return handleServiceError(err)
	}

	h.cookies.SetTokens(c, tokens.AccessToken, tokens.RefreshToken)
	return ok(c, http.StatusCreated, "User registered successfully")
}

// Login godoc
// @Summary Login user
// @Description Checks the password. Accounts with 2FA enabled get requires2FA and no cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	client := service.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, client)
	if err != nil {
		return handleServiceError(err)
	}

	if result.Requires2FA {
		return c.JSON(http.StatusOK, LoginResponse{
			Success:     true,
			Requires2FA: true,
			Message:     "Please enter your 2FA code",
			Email:       result.Email,
		})
	}

	h.cookies.SetTokens(c, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	return c.JSON(http.StatusOK, LoginResponse{Success: true, Message: "Login successful"})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the refresh token when possible and clears both cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(auth.RefreshCookieName); err == nil {
		h.authService.Logout(c.Request().Context(), ck.Value)
	}
	h.cookies.Clear(c)
	return ok(c, http.StatusOK, "Logout successful")
}

// RefreshToken godoc
// @Summary Rotate the token pair
// @Description Exchanges the refresh cookie for a new access and refresh token. Each refresh token works once.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var refresh string
	if ck, err := c.Cookie(auth.RefreshCookieName); err == nil {
		refresh = ck.Value
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), refresh)
	if err != nil {
		return handleServiceError(err)
	}

	h.cookies.SetTokens(c, tokens.AccessToken, tokens.RefreshToken)
	return ok(c, http.StatusOK, "Token refreshed successfully")
}

// SendVerifyOTP godoc
// @Summary Send account verification OTP
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /auth/send-verify-otp [post]
func (h *AuthHandler) SendVerifyOTP(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.otpService.SendVerifyOTP(c.Request().Context(), p.UserID); err != nil {
		return handleServiceError(err)
	}
	return ok(c, http.StatusOK, "Verification OTP sent successfully")
}

// VerifyAccount godoc
// @Summary Verify account with OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyAccountRequest true "Verification code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /auth/verify-account [post]
func (h *AuthHandler) VerifyAccount(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req VerifyAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.otpService.VerifyAccount(c.Request().Context(), p.UserID, req.OTP); err != nil {
		return handleServiceError(err)
	}
	return ok(c, http.StatusOK, "Email verified successfully")
}

// IsAuthenticated godoc
// @Summary Check the session
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /auth/is-auth [get]
func (h *AuthHandler) IsAuthenticated(c echo.Context) error {
	if _, err := principal(c); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "User is authenticated")
}

// SendResetOTP godoc
// @Summary Send password reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendResetOTPRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/send-reset-otp [post]
func (h *AuthHandler) SendResetOTP(c echo.Context) error {
	var req SendResetOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.otpService.SendResetOTP(c.Request().Context(), req.Email); err != nil {
		return handleServiceError(err)
	}
	return ok(c, http.StatusOK, "Reset OTP sent successfully")
}

// ResetPassword godoc
// @Summary Reset password with OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.otpService.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return handleServiceError(err)
	}
	return ok(c, http.StatusOK, "Password reset successfully")
}

// Health godoc
// @Summary Auth service liveness
// @Tags auth
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /auth/health [get]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Auth service is running",
		Timestamp: time.Now().UTC(),
	})
}
