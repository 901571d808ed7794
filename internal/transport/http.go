// Package transport issues signed, rate-limited HTTP calls against the
// exchange REST API and maps responses onto the library's error taxonomy.
package transport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"upbit/internal/circuitbreaker"
	"upbit/internal/keyring"
	"upbit/internal/ratelimit"
	"upbit/pkg/core"
)

// exchangePrefixes are the path prefixes billed against the trading/account
// request budget. Everything else is market data.
var exchangePrefixes = []string{
	"/v1/orders",
	"/v1/order",
	"/v1/accounts",
	"/v1/api_keys",
	"/v1/withdraws",
	"/v1/withdraw",
	"/v1/deposits",
	"/v1/deposit",
}

// GroupForPath returns the rate limit group an endpoint path draws from.
func GroupForPath(path string) string {
	for _, prefix := range exchangePrefixes {
		if strings.HasPrefix(path, prefix) {
			return ratelimit.GroupExchange
		}
	}
	return ratelimit.GroupQuotation
}

// Invoker executes one signed HTTP call at a time per caller: acquire the
// rate budget, sign, dispatch, decode. It never retries a categorized
// error; retry policy belongs to the caller.
type Invoker struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	keys    *keyring.Ring
	breaker *circuitbreaker.Breaker

	mu     sync.RWMutex
	logger zerolog.Logger
	closed bool
}

// errorEnvelope is the service's error response body.
type errorEnvelope struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// New creates an Invoker from the client configuration. The limiter and
// key ring are shared with the rest of the client; breaker may be nil.
func New(cfg *core.Config, limiter *ratelimit.Limiter, keys *keyring.Ring, breaker *circuitbreaker.Breaker, logger zerolog.Logger) *Invoker {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(cfg.RetryWaitMin)
	client.SetRetryMaxWaitTime(cfg.RetryWaitMax)
	client.SetHeader("Accept", "application/json")
	client.AddContentTypeEncoder("application/json", func(w io.Writer, v any) error {
		data, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	client.AddContentTypeDecoder("application/json", func(r io.Reader, v any) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return sonic.Unmarshal(data, v)
	})

	inv := &Invoker{
		client:  client,
		limiter: limiter,
		keys:    keys,
		breaker: breaker,
		logger:  logger,
	}

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		lg := inv.log()
		lg.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})
	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		lg := inv.log()
		lg.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return inv
}

// SetLogger replaces the logger used by the invoker and its middleware.
func (i *Invoker) SetLogger(logger zerolog.Logger) {
	i.mu.Lock()
	i.logger = logger
	i.mu.Unlock()
}

func (i *Invoker) log() zerolog.Logger {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.logger
}

// Close releases the underlying HTTP client. Subsequent calls fail with
// ErrClientClosed.
func (i *Invoker) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.client.Close()
}

// Call performs one request: waits on the budget for the path's group,
// signs when required, executes, and decodes the 2xx body into out.
// Non-2xx responses come back as categorized *core.ClientError values.
func (i *Invoker) Call(ctx context.Context, method, path string, params core.Params, body any, requireAuth bool, out any) error {
	i.mu.RLock()
	closed := i.closed
	i.mu.RUnlock()
	if closed {
		return core.ErrClientClosed
	}

	group := GroupForPath(path)
	if err := i.limiter.Wait(ctx, group); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if i.breaker != nil && !i.breaker.Allow() {
		return core.NewClientError(core.ErrorTypeTransport, "circuit breaker is open")
	}

	req := i.client.R().SetContext(ctx)

	if len(params) > 0 {
		req.SetQueryParamsFromValues(params.Values())
	}

	// The body is serialized here, once: the signed digest must cover the
	// exact bytes that go on the wire.
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = sonic.ConfigStd.Marshal(body)
		if err != nil {
			return core.NewClientError(core.ErrorTypeValidation,
				fmt.Sprintf("encode request body: %v", err))
		}
		req.SetContentType("application/json")
		req.SetBody(bodyBytes)
	}

	if requireAuth {
		token, err := i.bearerToken(params, bodyBytes)
		if err != nil {
			return err
		}
		req.SetHeader("Authorization", "Bearer "+token)
		i.keys.MarkUsed()
	}

	var resp *resty.Response
	var err error
	switch method {
	case "GET":
		resp, err = req.Get(path)
	case "POST":
		resp, err = req.Post(path)
	case "DELETE":
		resp, err = req.Delete(path)
	default:
		return fmt.Errorf("unsupported http method: %s", method)
	}

	success := err == nil && resp.IsSuccess()
	if i.breaker != nil {
		i.breaker.Record(success)
	}

	if err != nil {
		lg := i.log()
		lg.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Msg("http request failed")
		return core.NewTransportError(err)
	}

	if header := resp.Header().Get("Remaining-Req"); header != "" {
		i.limiter.UpdateFromHeader(header)
	}

	if resp.IsError() {
		return i.responseError(resp)
	}

	if out != nil {
		if err := sonic.Unmarshal(resp.Bytes(), out); err != nil {
			return core.NewClientError(core.ErrorTypeDecode,
				fmt.Sprintf("decode response for %s %s: %v", method, path, err))
		}
	}
	return nil
}

func (i *Invoker) bearerToken(params core.Params, bodyBytes []byte) (string, error) {
	signer := i.keys.Signer()
	if signer == nil {
		return "", core.ErrNoCredentials
	}
	if len(bodyBytes) > 0 {
		return signer.TokenWithRawBody(bodyBytes)
	}
	return signer.TokenWithQuery(params)
}

func (i *Invoker) responseError(resp *resty.Response) error {
	var envelope errorEnvelope
	name, message := "", ""
	if err := sonic.Unmarshal(resp.Bytes(), &envelope); err == nil {
		name = envelope.Error.Name
		message = envelope.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", resp.StatusCode())
	}

	if resp.StatusCode() == 429 {
		i.keys.OnRateLimit()
		retryAfter := parseRetryAfter(resp.Header().Get("Retry-After"))
		return core.NewRateLimitError(message, retryAfter)
	}
	return core.NewAPIError(resp.StatusCode(), name, message)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
