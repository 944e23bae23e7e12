package config

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOGIN_RATE_POINTS", "")
	t.Setenv("LOGIN_RATE_WINDOW", "")
	t.Setenv("LOGIN_RATE_BLOCK", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, 5, cfg.LoginRatePoints)
	assert.Equal(t, time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateBlock)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOGIN_RATE_WINDOW", "30")
	t.Setenv("LOGIN_RATE_BLOCK", "10m")
	t.Setenv("TWO_FACTOR_LOGIN_CHALLENGE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.LoginRateWindow)
	assert.Equal(t, 10*time.Minute, cfg.LoginRateBlock)
	assert.True(t, cfg.TwoFactorLoginChallenge)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:         "mysql",
			MailTransport:    "log",
			LoginRatePoints:  5,
			LoginRateWindow:  time.Minute,
			LoginRateBlock:   15 * time.Minute,
			MailWorkers:      1,
			MailQueueSize:    10,
			JWTSecret:        "a",
			JWTRefreshSecret: "b",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "sqlite" }, "DB_DRIVER"},
		{"smtp without host", func(c *Config) { c.MailTransport = "smtp" }, "SMTP_HOST"},
		{"unknown transport", func(c *Config) { c.MailTransport = "pigeon" }, "MAIL_TRANSPORT"},
		{"zero points", func(c *Config) { c.LoginRatePoints = 0 }, "LOGIN_RATE_POINTS"},
		{"missing refresh secret", func(c *Config) { c.JWTRefreshSecret = "" }, "JWT_REFRESH_SECRET"},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/33"} }, "TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTrustedProxyNets(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7 ,::1")

	nets, err := Load().TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 3)

	assert.True(t, nets[0].Contains(net.ParseIP("10.20.30.40")))
	assert.True(t, nets[1].Contains(net.ParseIP("192.0.2.7")))
	assert.False(t, nets[1].Contains(net.ParseIP("192.0.2.8")))
	assert.True(t, nets[2].Contains(net.ParseIP("::1")))

	_, err = (&Config{TrustedProxies: []string{"proxy.internal"}}).TrustedProxyNets()
	assert.Error(t, err)
}
