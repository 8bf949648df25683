package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finbridge/ledgerbridge/internal/auth"
	"github.com/finbridge/ledgerbridge/internal/queue"
)

const (
	// defaultTimeout bounds one dispatch attempt at the transport level.
	// There is no additional per-call timeout above this; a slow but
	// not-yet-failed call holds up the reconciliation run.
	defaultTimeout = 30 * time.Second
)

// HTTPDispatcher replays mutations as JSON requests against the remote API.
// Each attempt carries a fresh correlation id and, when a token provider is
// configured, a bearer token injected per attempt.
type HTTPDispatcher struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenProvider // nil when the host handles auth elsewhere
}

// NewHTTPDispatcher creates a dispatcher targeting baseURL.
// tokens may be nil for unauthenticated targets.
func NewHTTPDispatcher(baseURL string, tokens auth.TokenProvider) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
}

// Dispatch performs one mutation attempt. It returns nil on a 2xx response,
// TransientError for transport failures and retryable statuses, and
// PermanentError for other 4xx rejections.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, method queue.Method, endpoint string, body json.RawMessage) error {
	if !method.Valid() {
		return fmt.Errorf("refusing to dispatch non-mutating method %q", method)
	}

	correlationID := uuid.New().String()
	logger := log.With().
		Str("method", string(method)).
		Str("endpoint", endpoint).
		Str("correlationId", correlationID).
		Logger()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	url := d.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, string(method), url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("X-Correlation-ID", correlationID)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	// Token fetched per attempt so a refreshed credential is picked up
	if d.tokens != nil {
		token, err := d.tokens.Token(ctx)
		if err != nil {
			return TransientError{Err: fmt.Errorf("failed to get auth token: %w", err)}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		logger.Warn().Err(err).Dur("duration", duration).Msg("dispatch transport failure")
		return TransientError{Err: err}
	}
	defer resp.Body.Close()

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("dispatch completed")

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return TransientError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("server returned %s", resp.Status),
		}

	default:
		// 4xx-class rejection: the server will not accept this mutation
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return PermanentError{Status: resp.StatusCode, Body: string(preview)}
	}
}
