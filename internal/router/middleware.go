package router

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"authcodelab/internal/auth"
	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/service"
)

const userIDKey = "userID"

// SessionMiddleware authenticates the access-token cookie and places the
// caller's auth.Principal, with the role currently stored, on the request
// context.
func SessionMiddleware(tokens service.TokenService, users service.UserService) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + auth.AccessCookieName,
		ContextKey:  userIDKey,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			id, err := tokens.VerifyAccess(token)
			if err != nil {
				return nil, err
			}
			return id, nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return sessionError(err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			id, ok := c.Get(userIDKey).(uuid.UUID)
			if !ok {
				return unauthorized()
			}

			ctx := c.Request().Context()
			p, err := users.ResolvePrincipal(ctx, id)
			if err != nil {
				if errors.Is(err, apperrors.ErrAccountNotFound) {
					return unauthorized()
				}
				return err
			}

			c.SetRequest(c.Request().WithContext(auth.WithPrincipal(ctx, p)))
			return next(c)
		})
	}
}

// RequireRoles rejects sessions whose role is not one of roles. It must run
// after SessionMiddleware.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := auth.PrincipalFrom(c.Request().Context())
			if !ok {
				return unauthorized()
			}
			if !p.Role.OneOf(roles...) {
				resp := apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
				return echo.NewHTTPError(resp.StatusCode, resp.ToErrorResponse())
			}
			return next(c)
		}
	}
}

func sessionError(err error) error {
	var parseErr *echojwt.TokenParsingError
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "Token expired. Please login again",
			Code:    "TOKEN_EXPIRED",
		})
	case errors.As(err, &parseErr):
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "Invalid token",
			Code:    "INVALID_TOKEN",
		})
	default:
		return unauthorized()
	}
}

func unauthorized() error {
	resp := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
	return echo.NewHTTPError(resp.StatusCode, resp.ToErrorResponse())
}
