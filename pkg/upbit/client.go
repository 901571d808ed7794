// Package upbit is the public client for the exchange's REST and streaming
// APIs. A Client bundles the signed transport, the per-group rate budgets,
// and a typed stream factory behind one configuration.
package upbit

import (
	"os"

	"github.com/rs/zerolog"

	"upbit/internal/auth"
	"upbit/internal/circuitbreaker"
	"upbit/internal/keyring"
	"upbit/internal/ratelimit"
	"upbit/internal/transport"
	"upbit/pkg/core"
	"upbit/pkg/stream"
)

// Client is the entry point for all REST operations. Market-data calls work
// without credentials; trading, withdrawal, and deposit calls require them.
type Client struct {
	config  *core.Config
	logger  zerolog.Logger
	limiter *ratelimit.Limiter
	keys    *keyring.Ring
	invoker *transport.Invoker
}

// New creates a Client. A nil config gets the defaults.
func New(cfg *core.Config) (*Client, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, core.NewClientError(core.ErrorTypeValidation, err.Error())
	}

	logger := newLogger(cfg.LogLevel)

	limiter := ratelimit.New(map[string]ratelimit.GroupConfig{
		ratelimit.GroupQuotation: {
			RequestsPerSecond: cfg.QuotationLimit.RequestsPerSecond,
			Burst:             cfg.QuotationLimit.Burst,
		},
		ratelimit.GroupExchange: {
			RequestsPerSecond: cfg.ExchangeLimit.RequestsPerSecond,
			Burst:             cfg.ExchangeLimit.Burst,
		},
	})

	keys := keyring.New(keyring.RotateManually)
	if cfg.Credentials != nil {
		keys.Add(*cfg.Credentials)
	}

	var breaker *circuitbreaker.Breaker
	if cfg.CircuitBreakerEnabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    cfg.CircuitBreakerFailThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
		})
	}

	return &Client{
		config:  cfg,
		logger:  logger,
		limiter: limiter,
		keys:    keys,
		invoker: transport.New(cfg, limiter, keys, breaker, logger),
	}, nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(parsed)
}

// SetLogger replaces the client's logger, including the transport's
// request/response logging.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
	c.invoker.SetLogger(logger)
}

// AddCredentials registers an additional API key pair. Extra keys spread
// signed traffic when the key ring's rotation strategy calls for it.
func (c *Client) AddCredentials(accessKey, secretKey string) {
	c.keys.Add(core.Credentials{AccessKey: accessKey, SecretKey: secretKey})
}

// Stream creates a stream client sharing this client's configuration and
// credentials. Each call returns an independent session.
func (c *Client) Stream() *stream.Client {
	var signer *auth.Signer
	if c.config.Credentials != nil {
		signer = auth.NewSigner(*c.config.Credentials)
	}
	s := stream.New(c.config, signer)
	s.SetLogger(c.logger)
	return s
}

// RateLimitStats returns a snapshot of the rate limiter counters.
func (c *Client) RateLimitStats() ratelimit.MetricsSnapshot {
	return c.limiter.Snapshot()
}

// Close releases the HTTP transport. Stream clients created via Stream are
// closed separately.
func (c *Client) Close() error {
	return c.invoker.Close()
}
