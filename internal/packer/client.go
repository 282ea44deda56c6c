// Package packer provides a client for the third-party bin-packing API.
package packer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/metrics"
)

const (
	findBinSizePath = "/packer/findBinSize"

	// OptimizationModeBinsNumber asks the API to minimise the number of bins.
	OptimizationModeBinsNumber = "bins_number"

	maxLoggedBodyBytes = 2000
)

var (
	// ErrUnexpectedResponseFormat is returned when a 200 response does not have the expected shape.
	ErrUnexpectedResponseFormat = errors.New("unexpected packer api response format")
	// ErrAPIError is returned when the API reports errors in its response.
	ErrAPIError = errors.New("packer api returned errors")
	// ErrNoAppropriatePackaging is returned when the API cannot fit all items into a single bin.
	ErrNoAppropriatePackaging = errors.New("packer api found no single bin for all items")

	errServerStatus = errors.New("packer api server error")
)

var tracer = otel.Tracer("github.com/guttosm/packing-service/internal/packer")

// Config holds packer API client settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Username       string
	Environment    string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Retry          RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, transport and retries included.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithCircuitBreaker guards API calls with cb. While the circuit is open
// calls are skipped and reported as an empty result.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// Client calls the packer API's findBinSize endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	username    string
	debugBodies bool
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
}

type findBinSizeRequest struct {
	Bins     []model.Bin            `json:"bins"`
	Items    []model.NormalizedItem `json:"items"`
	Username string                 `json:"username"`
	APIKey   string                 `json:"api_key"`
	Params   requestParams          `json:"params"`
}

type requestParams struct {
	OptimizationMode string `json:"optimization_mode"`
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + findBinSizePath,
		apiKey:      cfg.APIKey,
		username:    cfg.Username,
		debugBodies: cfg.Environment == "dev" || cfg.Environment == "test",
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(newRetryTransport(baseTransport(cfg.ConnectTimeout), cfg.Retry)),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func baseTransport(connectTimeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return transport
}

// Endpoint returns the full findBinSize URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FindSingleBinData asks the API for one bin holding all items.
//
// Transport failures, non-200 responses and an open circuit are logged and
// reported as an empty BinData with a nil error. A 200 response is classified
// into ErrAPIError, ErrNoAppropriatePackaging or ErrUnexpectedResponseFormat
// when it does not name exactly one bin.
func (c *Client) FindSingleBinData(ctx context.Context, bins []model.Bin, items []model.NormalizedItem, requestHash, cacheContext string) (model.BinData, error) {
	ctx, span := tracer.Start(ctx, "packer.FindSingleBinData", trace.WithAttributes(
		attribute.String("packing.request_hash", requestHash),
		attribute.Int("packing.items_count", len(items)),
		attribute.String("packing.cache_context", cacheContext),
	))
	defer span.End()

	logger := log.With().
		Str("request_hash", requestHash).
		Int("items_count", len(items)).
		Str("cache_context", cacheContext).
		Str("endpoint", c.endpoint).
		Logger()

	payload, err := json.Marshal(findBinSizeRequest{
		Bins:     bins,
		Items:    items,
		Username: c.username,
		APIKey:   c.apiKey,
		Params:   requestParams{OptimizationMode: OptimizationModeBinsNumber},
	})
	if err != nil {
		return model.BinData{}, fmt.Errorf("failed to encode packer request: %w", err)
	}

	start := time.Now()
	var (
		status  int
		body    []byte
		callErr error
	)
	err = c.execute(ctx, func() error {
		status, body, callErr = c.post(ctx, payload)
		if callErr != nil {
			return callErr
		}
		if status >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	})

	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		metrics.RecordPackerRequest("circuit_open", time.Since(start))
		span.SetStatus(codes.Error, "circuit open")
		logger.Warn().Msg("Packer API circuit is open, skipping call")
		return model.BinData{}, nil
	case err != nil && callErr == nil && !errors.Is(err, errServerStatus):
		// The breaker refused a request whose context was already done.
		metrics.RecordPackerRequest("context_done", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "context done")
		logger.Warn().Err(err).Msg("Packer API call skipped, request context is done")
		return model.BinData{}, nil
	case callErr != nil:
		metrics.RecordPackerRequest("transport_error", time.Since(start))
		span.RecordError(callErr)
		span.SetStatus(codes.Error, "transport error")
		logger.Error().Err(callErr).Msg("Packing service error")
		return model.BinData{}, nil
	case status != http.StatusOK:
		metrics.RecordPackerRequest("http_error", time.Since(start))
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		span.SetStatus(codes.Error, "unexpected status")
		event := logger.Error().
			Int("status_code", status).
			Str("response_body", truncate(body, maxLoggedBodyBytes))
		withDiagnostics(event, diagnosticsFromBody(body)).Msg("Packing service error")
		return model.BinData{}, nil
	}

	if c.debugBodies {
		logger.Debug().Str("response_body", string(body)).Msg("Packer API response")
	}

	binData, details, err := parseFindBinSize(body)
	switch {
	case errors.Is(err, ErrAPIError):
		metrics.RecordPackerRequest("api_error", time.Since(start))
		withDiagnostics(logger.Warn(), details).Msg("Packer API reported errors")
	case errors.Is(err, ErrNoAppropriatePackaging):
		metrics.RecordPackerRequest("no_single_bin", time.Since(start))
		logger.Warn().
			Int("bins_packed_count", details.BinsPacked).
			Int("not_packed_items_count", details.NotPacked).
			Msg("Packer API could not fit all items into a single bin")
	case err != nil:
		metrics.RecordPackerRequest("unexpected_format", time.Since(start))
	default:
		metrics.RecordPackerRequest("ok", time.Since(start))
		span.SetAttributes(attribute.String("packing.bin_id", binData.ID))
		return binData, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return model.BinData{}, err
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(ctx, fn)
}

func (c *Client) post(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build packer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read packer response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func withDiagnostics(event *zerolog.Event, d responseDetails) *zerolog.Event {
	if len(d.Status) > 0 {
		event = event.RawJSON("api_status", d.Status)
	}
	if len(d.Errors) > 0 {
		event = event.RawJSON("api_errors", d.Errors)
	}
	return event
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + " (truncated...)"
}
