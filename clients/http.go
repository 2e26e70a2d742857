package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jojo244-329/server-app/apperrors"
	"github.com/cenkalti/backoff/v4"
)

const maxErrorBodySize = 64 << 10

// Options tunes the outbound HTTP behavior shared by the side-effect clients.
type Options struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryInterval is the initial backoff interval.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	return o
}

type jsonPoster struct {
	service    string
	httpClient *http.Client
	opts       Options
}

func newJSONPoster(service string, opts Options) *jsonPoster {
	opts = opts.withDefaults()
	return &jsonPoster{
		service:    service,
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// post sends body as JSON, retrying transport errors, 429 and 5xx with
// exponential backoff. Other 4xx answers fail immediately.
func (p *jsonPoster) post(ctx context.Context, url string, headers map[string]string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http do: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		httpErr := &apperrors.UpstreamError{Service: p.service, StatusCode: resp.StatusCode, Body: respBytes}
		if httpErr.Retryable() {
			return httpErr
		}
		return backoff.Permanent(httpErr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.opts.RetryInterval
	bo.MaxElapsedTime = 0

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.opts.MaxRetries)), ctx))
}
