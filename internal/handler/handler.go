package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"authcodelab/internal/auth"
	"authcodelab/internal/errors"
)

// MessageResponse is the body of every plain success reply.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(c echo.Context, status int, message string) error {
	return c.JSON(status, MessageResponse{Success: true, Message: message})
}

// handleServiceError converts a service error into the shared error body.
// Unmapped errors are passed through so the error handler can log them.
func handleServiceError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		return err
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Message: "Invalid request body",
			Code:    "INVALID_BODY",
		})
	}
	if err := c.Validate(req); err != nil {
		return handleServiceError(errors.ErrValidation)
	}
	return nil
}

func principal(c echo.Context) (auth.Principal, error) {
	p, found := auth.PrincipalFrom(c.Request().Context())
	if !found {
		return auth.Principal{}, handleServiceError(errors.ErrUnauthorized)
	}
	return p, nil
}
