package router

import (
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"authcodelab/internal/config"
	"authcodelab/internal/handler"
	"authcodelab/internal/model"
)

// Register wires routes and middleware. session authenticates the token
// cookie; loginLimiter guards the brute-forceable endpoints.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	session echo.MiddlewareFunc,
	loginLimiter echo.MiddlewareFunc,
	authHandler *handler.AuthHandler,
	twoFactorHandler *handler.TwoFactorHandler,
	userHandler *handler.UserHandler,
) {
	trusted, err := cfg.TrustedProxyNets()
	if err != nil {
		log.Warn("ignoring TRUSTED_PROXIES, using peer addresses", zap.Error(err))
		trusted = nil
	}
	e.IPExtractor = IPExtractor(trusted)
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login, loginLimiter)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.POST("/refresh-token", authHandler.RefreshToken)
	authGroup.POST("/send-verify-otp", authHandler.SendVerifyOTP, loginLimiter, session)
	authGroup.POST("/verify-account", authHandler.VerifyAccount, session)
	authGroup.GET("/is-auth", authHandler.IsAuthenticated, session)
	authGroup.POST("/send-reset-otp", authHandler.SendResetOTP)
	authGroup.POST("/reset-password", authHandler.ResetPassword)
	authGroup.GET("/health", authHandler.Health)

	twoFactor := api.Group("/2fa")
	twoFactor.POST("/verify-login", twoFactorHandler.VerifyLogin)
	twoFactor.POST("/setup", twoFactorHandler.Setup, session)
	twoFactor.POST("/verify", twoFactorHandler.Verify, session)
	twoFactor.POST("/disable", twoFactorHandler.Disable, session)
	twoFactor.GET("/status", twoFactorHandler.Status, session)
	twoFactor.POST("/regenerate-codes", twoFactorHandler.RegenerateCodes, session)

	user := api.Group("/user", session)
	user.GET("/data", userHandler.GetUserData)
	user.GET("/dashboard/user", userHandler.UserDashboard)
	user.GET("/dashboard/moderator", userHandler.ModeratorDashboard, RequireRoles(model.RoleModerator, model.RoleAdmin))
	user.GET("/dashboard/admin", userHandler.AdminDashboard, RequireRoles(model.RoleAdmin))
	user.GET("/all-users", userHandler.ListUsers, RequireRoles(model.RoleAdmin))
	user.PUT("/update-role", userHandler.UpdateRole, RequireRoles(model.RoleAdmin))
}

// IPExtractor returns the peer address as the client IP. When trusted
// proxies are given, X-Forwarded-For is followed back through them only.
func IPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// RequestLogger writes one access-log line per request to log.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.String("ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Status >= http.StatusInternalServerError {
				log.Error("HTTP Request Error", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("HTTP Request", fields...)
			return nil
		},
	})
}
