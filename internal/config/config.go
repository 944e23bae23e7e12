package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	AppEnv      string
	LogLevel    string
	SwaggerHost string

	DBDriver      string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret        string
	JWTRefreshSecret string
	AllowedOrigins   []string
	// TrustedProxies lists the CIDRs (or single IPs) of reverse proxies whose
	// X-Forwarded-For header is believed. Empty means the peer address is used.
	TrustedProxies   []string

	TOTPIssuer              string
	LoginRatePoints         int
	LoginRateWindow         time.Duration
	LoginRateBlock          time.Duration
	TwoFactorLoginChallenge bool

	RiskEngineURL     string
	RiskEngineTimeout time.Duration

	MailTransport string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	BrevoAPIKey   string
	SenderEmail   string
	SenderName    string
	MailWorkers   int
	MailQueueSize int

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "4000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),

		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "user:password@tcp(localhost:3306)/authcodelab?charset=utf8mb4&parseTime=True&loc=Local"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "authcodelab"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-too"),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES", nil),

		TOTPIssuer:              getEnv("TOTP_ISSUER", "AuthCodeLab"),
		LoginRatePoints:         getEnvInt("LOGIN_RATE_POINTS", 5),
		LoginRateWindow:         getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		LoginRateBlock:          getEnvDuration("LOGIN_RATE_BLOCK", 15*time.Minute),
		TwoFactorLoginChallenge: getEnvBool("TWO_FACTOR_LOGIN_CHALLENGE", false),

		RiskEngineURL:     os.Getenv("RISK_ENGINE_URL"),
		RiskEngineTimeout: getEnvDuration("RISK_ENGINE_TIMEOUT", 2*time.Second),

		MailTransport: getEnv("MAIL_TRANSPORT", "log"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		BrevoAPIKey:   os.Getenv("BREVO_API_KEY"),
		SenderEmail:   getEnv("SENDER_EMAIL", "no-reply@authcodelab.local"),
		SenderName:    getEnv("SENDER_NAME", "AuthCodeLab"),
		MailWorkers:   getEnvInt("MAIL_WORKERS", 2),
		MailQueueSize: getEnvInt("MAIL_QUEUE_SIZE", 100),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TrustedProxyNets parses TrustedProxies. A bare IP becomes a single-host
// network.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", entry)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", entry)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Validate checks the combinations Load cannot reject on its own.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "mysql", "postgres", "mongo":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of mysql, postgres, mongo", c.DBDriver))
	}

	switch c.MailTransport {
	case "log", "brevo":
	case "smtp":
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when MAIL_TRANSPORT=smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_TRANSPORT %q is not one of smtp, brevo, log", c.MailTransport))
	}

	if c.LoginRatePoints <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_POINTS must be positive"))
	}
	if c.LoginRateWindow <= 0 || c.LoginRateBlock <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_WINDOW and LOGIN_RATE_BLOCK must be positive"))
	}
	if c.MailWorkers <= 0 || c.MailQueueSize <= 0 {
		errs = append(errs, errors.New("MAIL_WORKERS and MAIL_QUEUE_SIZE must be positive"))
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		errs = append(errs, err)
	}
	if c.JWTSecret == "" || c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
