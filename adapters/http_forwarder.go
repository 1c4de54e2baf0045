package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"telemetry-bridge/application"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	ForwarderDefaultTimeout        = 5 * time.Second
	ForwarderDefaultInitialBackoff = 200 * time.Millisecond
	ForwarderDefaultMaxBackoff     = 2 * time.Second

	maxResponseBody = 64 << 10
)

type HTTPForwarderParams struct {
	URL string

	Timeout time.Duration

	// MaxRetries of 0 sends every reading exactly once.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	HTTPClient *http.Client

	Log zerolog.Logger
}

func (h *HTTPForwarderParams) EnsureDefaults() {
	if h.Timeout == 0 {
		h.Timeout = ForwarderDefaultTimeout
	}

	if h.InitialBackoff == 0 {
		h.InitialBackoff = ForwarderDefaultInitialBackoff
	}

	if h.MaxBackoff == 0 {
		h.MaxBackoff = ForwarderDefaultMaxBackoff
	}

	if h.HTTPClient == nil {
		h.HTTPClient = &http.Client{Timeout: h.Timeout}
	}
}

// storeResponse is what the storage API answers to an insert.
type storeResponse struct {
	ID *int64 `json:"id"`
}

// HTTPForwarder posts readings to the storage API as JSON.
type HTTPForwarder struct {
	params HTTPForwarderParams

	log zerolog.Logger
}

func NewHTTPForwarder(params HTTPForwarderParams) (*HTTPForwarder, error) {
	u, err := url.ParseRequestURI(params.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid storage api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid storage api url scheme: %q", u.Scheme)
	}
	if params.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative")
	}

	params.EnsureDefaults()
	return &HTTPForwarder{params: params, log: params.Log}, nil
}

func (h *HTTPForwarder) Forward(ctx context.Context, reading application.Reading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return &application.ForwardError{Err: err}
	}

	if h.params.MaxRetries == 0 {
		return h.post(ctx, reading, body)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.params.InitialBackoff
	b.MaxInterval = h.params.MaxBackoff

	operation := func() error {
		err := h.post(ctx, reading, body)

		var forwardErr *application.ForwardError
		if errors.As(err, &forwardErr) && forwardErr.StatusCode >= 400 && forwardErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		h.log.Warn().Err(err).Dur("retry_in", next).Msg("retrying reading")
	}

	err = backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(h.params.MaxRetries)), ctx), notify)
	if err != nil && !errors.Is(err, application.ErrForward) {
		return &application.ForwardError{Err: err}
	}
	return err
}

func (h *HTTPForwarder) post(ctx context.Context, reading application.Reading, body []byte) error {
	// bounds each attempt, including with a caller supplied HTTPClient
	ctx, cancel := context.WithTimeout(ctx, h.params.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.params.URL, bytes.NewReader(body))
	if err != nil {
		return &application.ForwardError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.params.HTTPClient.Do(req)
	if err != nil {
		return &application.ForwardError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &application.ForwardError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &application.ForwardError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	event := h.log.Info().Float64("value", reading.Value).Str("unit", reading.Unit)

	var stored storeResponse
	if json.Unmarshal(respBody, &stored) == nil && stored.ID != nil {
		event = event.Int64("id", *stored.ID)
	}

	event.Msg("reading sent successfully")
	return nil
}

var _ application.Forwarder = &HTTPForwarder{}
