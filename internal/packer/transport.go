package packer

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/guttosm/packing-service/internal/metrics"
)

// RetryConfig bounds transport-level retries of packer API requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns three attempts with 200ms initial and 2s maximum delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// retryTransport retries connection errors, 429 and 5xx responses with
// exponential backoff and jitter. When attempts run out on a retryable
// status, the last response is returned as is.
type retryTransport struct {
	next http.RoundTripper
	cfg  RetryConfig
}

func newRetryTransport(next http.RoundTripper, cfg RetryConfig) *retryTransport {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultRetryConfig().InitialDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	return &retryTransport{next: next, cfg: cfg}
}

func (t *retryTransport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.InitialDelay
	b.MaxInterval = t.cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(t.cfg.MaxAttempts-1))
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var (
		resp    *http.Response
		attempt int
	)
	operation := func() error {
		attempt++

		r, err := rewind(req, attempt)
		if err != nil {
			return backoff.Permanent(err)
		}

		res, err := t.next.RoundTrip(r)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		if retryableStatus(res.StatusCode) && attempt < t.cfg.MaxAttempts {
			drain(res.Body)
			return fmt.Errorf("retryable status %d", res.StatusCode)
		}

		resp = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordPackerRetry()
		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("url", req.URL.String()).
			Msg("Retrying packer API request")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(t.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// rewind returns the request to send on the given attempt, with a fresh body
// for every attempt after the first.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r := req.Clone(req.Context())
	r.Body = body
	return r, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
