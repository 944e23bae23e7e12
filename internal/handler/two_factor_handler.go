package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"authcodelab/internal/auth"
	"authcodelab/internal/service"
)

// TwoFactorHandler handles TOTP enrollment and second-factor login.
type TwoFactorHandler struct {
	twoFactorService service.TwoFactorService
	authService      service.AuthService
	cookies          auth.CookieWriter
}

// NewTwoFactorHandler creates a new two-factor handler.
func NewTwoFactorHandler(twoFactorService service.TwoFactorService, authService service.AuthService, cookies auth.CookieWriter) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactorService: twoFactorService, authService: authService, cookies: cookies}
}

// TwoFactorCodeRequest carries a code from the authenticator app.
type TwoFactorCodeRequest struct {
	Token string `json:"token" validate:"required"`
}

// PasswordRequest re-authenticates a sensitive change.
type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// VerifyLoginRequest completes a login that stopped at requires2FA.
type VerifyLoginRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Token        string `json:"token" validate:"required"`
	IsBackupCode bool   `json:"isBackupCode"`
}

// SetupData is the enrollment material shown to the user once.
type SetupData struct {
	QRCode         string   `json:"qrCode"`
	Secret         string   `json:"secret"`
	BackupCodes    []string `json:"backupCodes"`
	ManualEntryKey string   `json:"manualEntryKey"`
}

// SetupResponse is returned by setup.
type SetupResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    SetupData `json:"data"`
}

// BackupCodesResponse returns a full backup-code set.
type BackupCodesResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	BackupCodes []string `json:"backupCodes"`
}

// VerifyLoginResponse is returned once the second factor is accepted.
type VerifyLoginResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	RemainingBackupCodes int    `json:"remainingBackupCodes"`
}

// StatusResponse wraps the enrollment state.
type StatusResponse struct {
	Success bool                    `json:"success"`
	Data    service.TwoFactorStatus `json:"data"`
}

// Setup godoc
// @Summary Begin 2FA enrollment
// @Description Generates a TOTP secret, QR code and backup codes. 2FA stays off until verified.
// @Tags 2fa
// @Produce json
// @Success 200 {object} SetupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /2fa/setup [post]
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	setup, err := h.twoFactorService.Setup(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}

	return c.JSON(http.StatusOK, SetupResponse{
		Success: true,
		Message: "2FA setup initiated. Scan QR code and verify to enable.",
		Data: SetupData{
			QRCode:         setup.QRCode,
			Secret:         setup.Secret,
			BackupCodes:    setup.BackupCodes,
			ManualEntryKey: setup.Secret,
		},
	})
}

// Verify godoc
// @Summary Complete 2FA enrollment
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body TwoFactorCodeRequest true "Current TOTP code"
// @Success 200 {object} BackupCodesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /2fa/verify [post]
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req TwoFactorCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	codes, err := h.twoFactorService.VerifyAndEnable(c.Request().Context(), p.UserID, req.Token)
	if err != nil {
		return handleServiceError(err)
	}

	return c.JSON(http.StatusOK, BackupCodesResponse{
		Success:     true,
		Message:     "2FA enabled successfully!",
		BackupCodes: codes,
	})
}

// Disable godoc
// @Summary Turn off 2FA
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body PasswordRequest true "Account password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /2fa/disable [post]
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.twoFactorService.Disable(c.Request().Context(), p.UserID, req.Password); err != nil {
		return handleServiceError(err)
	}
	return ok(c, http.StatusOK, "2FA disabled successfully")
}

// VerifyLogin godoc
// @Summary Complete a 2FA login
// @Description Accepts a TOTP code or, with isBackupCode, a single-use backup code. Sets the session cookies.
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body VerifyLoginRequest true "Second factor"
// @Success 200 {object} VerifyLoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /2fa/verify-login [post]
func (h *TwoFactorHandler) VerifyLogin(c echo.Context) error {
	var req VerifyLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.authService.VerifyTwoFactorLogin(c.Request().Context(), req.Email, req.Token, req.IsBackupCode)
	if err != nil {
		return handleServiceError(err)
	}

	h.cookies.SetTokens(c, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	return c.JSON(http.StatusOK, VerifyLoginResponse{
		Success:              true,
		Message:              "2FA verification successful",
		RemainingBackupCodes: result.RemainingBackupCodes,
	})
}

// Status godoc
// @Summary Read 2FA state
// @Tags 2fa
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /2fa/status [get]
func (h *TwoFactorHandler) Status(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	status, err := h.twoFactorService.Status(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Success: true, Data: *status})
}

// RegenerateCodes godoc
// @Summary Replace backup codes
// @Description Issues a new set of backup codes. Every earlier code stops working.
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body PasswordRequest true "Account password"
// @Success 200 {object} BackupCodesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /2fa/regenerate-codes [post]
func (h *TwoFactorHandler) RegenerateCodes(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	codes, err := h.twoFactorService.RegenerateBackupCodes(c.Request().Context(), p.UserID, req.Password)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, BackupCodesResponse{
		Success:     true,
		Message:     "Backup codes regenerated successfully",
		BackupCodes: codes,
	})
}
