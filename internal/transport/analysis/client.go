// Package analysis is the HTTP client of the descriptor computation service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/metrics"
)

// maxErrorBody caps how much of a failed response is forwarded as the error message.
const maxErrorBody = 64 << 10

// Client calls the descriptor computation service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the computation service settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
	Logger     *zap.Logger
}

// NewClient creates a computation service client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  cfg.Logger,
	}
}

// Analyze implements domain.Analyzer: one POST computes every requested descriptor.
// Non-2xx responses become UpstreamErrors carrying the service's status and body.
func (c *Client) Analyze(
	ctx context.Context, audio []byte, names []descriptor.Name,
) (domain.Analysis, error) {
	endpoint := c.analyzeURL(names)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)

	duration := time.Since(start)

	if err != nil {
		c.record("transport_error", duration)
		return domain.Analysis{}, &domain.UpstreamError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	c.record(status, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Analysis{}, &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}

	var a domain.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return domain.Analysis{}, &domain.UpstreamError{
			Status:  http.StatusBadGateway,
			Message: "invalid analysis response: " + err.Error(),
		}
	}
	return a, nil
}

// HealthCheck verifies the service answers its descriptor listing.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/descriptors", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analysis service health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) analyzeURL(names []descriptor.Name) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, n := range names {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(string(n)))
	}
	return b.String()
}

func (c *Client) record(status string, duration time.Duration) {
	metrics.AnalysisRequestsTotal.WithLabelValues(status).Inc()
	metrics.AnalysisRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
	if c.logger != nil {
		c.logger.Debug("Analysis request finished",
			zap.String("status", status),
			zap.Duration("duration", duration),
		)
	}
}
