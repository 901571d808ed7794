package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// RateGroupConfig holds the token-bucket parameters for one request group.
// The long-run rate never exceeds RequestsPerSecond; bursts up to Burst
// tokens are permitted.
type RateGroupConfig struct {
	RequestsPerSecond int `json:"requests_per_second" validate:"min=1"`
	Burst             int `json:"burst" validate:"min=1"`
}

// Credentials holds the API key pair. The secret is used only for signing
// and is never logged or serialized.
type Credentials struct {
	// AccessKey is the public key identifier.
	AccessKey string `json:"-"`
	// SecretKey is the private signing key.
	SecretKey string `json:"-"`
}

// Config contains all configuration options for a client.
// It covers endpoints, authentication, networking, rate budgets, and the
// stream session's reconnect behavior.
type Config struct {
	// BaseURL is the REST API endpoint.
	BaseURL string `json:"base_url" validate:"required,url"`
	// StreamURL is the websocket endpoint.
	StreamURL string `json:"stream_url" validate:"required,url"`
	// Credentials is the API key pair; nil for public-only access.
	Credentials *Credentials `json:"-"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// QuotationLimit is the budget for market-data requests.
	QuotationLimit RateGroupConfig `json:"quotation_limit"`
	// ExchangeLimit is the budget for trading and account requests.
	ExchangeLimit RateGroupConfig `json:"exchange_limit"`

	// PingInterval is how often the stream session pings the server.
	PingInterval time.Duration `json:"ping_interval" validate:"min=0"`
	// PongWait is the grace beyond PingInterval before the connection is
	// considered dead.
	PongWait time.Duration `json:"pong_wait" validate:"min=0"`
	// SubscribeGrace is how long after a subscribe frame the session keeps
	// waiting for first data before treating silence as normal (quiet market).
	SubscribeGrace time.Duration `json:"subscribe_grace" validate:"min=0"`
	// ReconnectBaseWait is the first reconnect backoff delay.
	ReconnectBaseWait time.Duration `json:"reconnect_base_wait" validate:"min=0"`
	// ReconnectMaxWait caps the reconnect backoff delay.
	ReconnectMaxWait time.Duration `json:"reconnect_max_wait" validate:"min=0"`
	// ReconnectMaxAttempts bounds consecutive failed reconnects before the
	// session gives up. Zero means unlimited.
	ReconnectMaxAttempts int `json:"reconnect_max_attempts" validate:"min=0"`
	// DecodeFailureThreshold is the run of consecutive undecodable frames
	// treated as a connection failure.
	DecodeFailureThreshold int `json:"decode_failure_threshold" validate:"min=1"`
	// StreamBufferSize is the capacity of the inbound message channel.
	StreamBufferSize int `json:"stream_buffer_size" validate:"min=1"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with the service's published
// limits: 30 market-data requests per second, 8 trading requests per second,
// 10s HTTP timeout, 1s-60s reconnect backoff.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://api.upbit.com",
		StreamURL: "wss://api.upbit.com/websocket/v1",

		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		QuotationLimit: RateGroupConfig{RequestsPerSecond: 30, Burst: 30},
		ExchangeLimit:  RateGroupConfig{RequestsPerSecond: 8, Burst: 8},

		PingInterval:           30 * time.Second,
		PongWait:               10 * time.Second,
		SubscribeGrace:         5 * time.Second,
		ReconnectBaseWait:      1 * time.Second,
		ReconnectMaxWait:       60 * time.Second,
		ReconnectMaxAttempts:   0,
		DecodeFailureThreshold: 5,
		StreamBufferSize:       256,

		CircuitBreakerEnabled:          false,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(accessKey, secretKey string) *Config {
	c.Credentials = &Credentials{AccessKey: accessKey, SecretKey: secretKey}
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimits overrides both request budgets and returns the config for chaining.
func (c *Config) WithRateLimits(quotation, exchange RateGroupConfig) *Config {
	c.QuotationLimit = quotation
	c.ExchangeLimit = exchange
	return c
}

// WithReconnect sets the stream reconnect policy and returns the config for chaining.
func (c *Config) WithReconnect(baseWait, maxWait time.Duration, maxAttempts int) *Config {
	c.ReconnectBaseWait = baseWait
	c.ReconnectMaxWait = maxWait
	c.ReconnectMaxAttempts = maxAttempts
	return c
}

// WithLogLevel sets the log level and returns the config for chaining.
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}
