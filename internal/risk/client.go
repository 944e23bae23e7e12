// Package risk consults the external login risk analyzer. The analyzer is
// advisory: when it cannot be reached the login is allowed.
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Status is the analyzer's verdict.
type Status string

const (
	StatusAllow     Status = "ALLOW"
	StatusChallenge Status = "CHALLENGE"
	StatusBlock     Status = "BLOCK"
)

// UnavailableReason is reported when the analyzer could not be consulted.
const UnavailableReason = "Risk Engine Unavailable"

// Request is the analyzer payload.
type Request struct {
	UserID    string `json:"userId"`
	IPAddress string `json:"ipAddress"`
	Timestamp int64  `json:"timestamp"`
	UserAgent string `json:"userAgent"`
	DeviceID  string `json:"deviceId"`
}

// NewRequest fills the analyzer defaults for missing request attributes.
func NewRequest(userID, ip, userAgent string, at time.Time) Request {
	if ip == "" {
		ip = "0.0.0.0"
	}
	if userAgent == "" {
		userAgent = "Unknown"
	}
	return Request{
		UserID:    userID,
		IPAddress: ip,
		Timestamp: at.UnixMilli(),
		UserAgent: userAgent,
		DeviceID:  "dev_" + userID,
	}
}

// Assessment is the analyzer's answer.
type Assessment struct {
	Status    Status  `json:"status"`
	RiskScore float64 `json:"riskScore"`
	Reason    string  `json:"reason,omitempty"`
	// Unavailable marks a fail-open result that the analyzer did not produce.
	Unavailable bool `json:"-"`
}

// Analyzer scores a login attempt. Implementations never fail; an
// unreachable analyzer yields an allowing assessment.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) Assessment
}

// Config configures the HTTP client.
type Config struct {
	URL     string
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Client calls the analyzer over HTTP behind a circuit breaker.
type Client struct {
	url  string
	http *http.Client
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

// NewClient builds a client for cfg.URL.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "risk-engine",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
		cb:   gobreaker.NewCircuitBreaker(st),
		log:  log,
	}
}

// Analyze posts req to the analyzer. Transport errors, non-2xx replies,
// undecodable bodies and an open breaker all fail open.
func (c *Client) Analyze(ctx context.Context, req Request) Assessment {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		c.log.Warn("risk engine unavailable, allowing login", zap.String("user_id", req.UserID), zap.Error(err))
		return Unavailable()
	}
	return res.(Assessment)
}

func (c *Client) call(ctx context.Context, req Request) (Assessment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Assessment{}, fmt.Errorf("marshal risk request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Assessment{}, fmt.Errorf("build risk request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Assessment{}, fmt.Errorf("risk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Assessment{}, fmt.Errorf("risk engine status %d", resp.StatusCode)
	}

	var a Assessment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return Assessment{}, fmt.Errorf("decode risk response: %w", err)
	}
	switch a.Status {
	case StatusAllow, StatusChallenge, StatusBlock:
	default:
		return Assessment{}, fmt.Errorf("unknown risk status %q", a.Status)
	}
	return a, nil
}

// Unavailable is the fail-open assessment.
func Unavailable() Assessment {
	return Assessment{Status: StatusAllow, RiskScore: 0, Reason: UnavailableReason, Unavailable: true}
}

// Disabled is used when no analyzer is configured.
type Disabled struct{}

// Analyze always allows.
func (Disabled) Analyze(context.Context, Request) Assessment {
	return Assessment{Status: StatusAllow}
}
