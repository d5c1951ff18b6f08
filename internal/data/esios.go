package data

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"spot-analytics/internal/metrics"
	"spot-analytics/internal/model"
)

// DefaultBaseURL is the public ESIOS API endpoint.
const DefaultBaseURL = "https://api.esios.ree.es"

// ESIOSClient fetches indicator series from the ESIOS (Red Eléctrica) API.
type ESIOSClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client

	// Cache is optional; nil disables response caching.
	Cache   *ResponseCache
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewESIOSClient creates a new ESIOS API client.
// If baseURL is empty, defaults to DefaultBaseURL. A zero timeout means 30s.
func NewESIOSClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *ESIOSClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ESIOSClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		Logger: logger,
	}
}

// QueryIndicatorParams defines one chunk request.
type QueryIndicatorParams struct {
	IndicatorID int       // e.g. 600, daily spot price
	StartDate   time.Time // first calendar date, inclusive
	EndDate     time.Time // last calendar date, inclusive
}

// ESIOSError represents a non-success answer from the ESIOS API, or a request
// that was rejected before being sent.
type ESIOSError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *ESIOSError) Error() string {
	return e.Message
}

// Temporary reports whether repeating the same request may succeed.
// Timeouts, rate limiting and server errors are temporary; other 4xx answers and
// client-side rejections are not.
func (e *ESIOSError) Temporary() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// RetryAfterDuration parses RetryAfter as a number of seconds. It returns 0 when absent or malformed.
func (e *ESIOSError) RetryAfterDuration() time.Duration {
	if e.RetryAfter == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(e.RetryAfter, "%d", &secs); err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// QueryIndicator fetches one indicator over [StartDate, EndDate].
func (c *ESIOSClient) QueryIndicator(ctx context.Context, params QueryIndicatorParams) (*model.IndicatorResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if params.IndicatorID <= 0 {
		return nil, &ESIOSError{Code: "INVALID_INDICATOR", Message: "indicator id must be positive"}
	}
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return nil, &ESIOSError{Code: "INVALID_RANGE", Message: "start_date and end_date are required"}
	}
	if params.StartDate.After(params.EndDate) {
		return nil, &ESIOSError{Code: "INVALID_RANGE", Message: "start_date must not be after end_date"}
	}

	start := params.StartDate.Format(model.DateLayout)
	end := params.EndDate.Format(model.DateLayout)
	log := c.logger().With(
		zap.Int("indicator", params.IndicatorID),
		zap.String("start", start),
		zap.String("end", end),
	)

	cacheKey := GenerateCacheKey(params)
	if cached, found := c.Cache.Get(cacheKey); found {
		log.Debug("esios cache hit", zap.Int("values", len(cached.Indicator.Values)))
		return cached, nil
	}

	// Build URL: /indicators/{id}
	u, err := url.Parse(fmt.Sprintf("%s/indicators/%d", c.BaseURL, params.IndicatorID))
	if err != nil {
		return nil, &ESIOSError{Code: "INVALID_BASE_URL", Message: fmt.Sprintf("invalid base URL: %v", err)}
	}
	q := u.Query()
	q.Set("start_date", start)
	q.Set("end_date", end)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ESIOSError{Code: "INVALID_REQUEST", Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	log.Debug("esios request", zap.String("path", u.Path))

	began := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(began)
	c.Metrics.ObserveRequest(statusLabel(resp, err), duration)
	if err != nil {
		log.Warn("esios request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("esios response", zap.Int("status", resp.StatusCode), zap.Duration("duration", duration))

	switch resp.StatusCode {
	case http.StatusOK:
		// Success, continue
	case http.StatusUnauthorized, http.StatusForbidden:
		log.Error("esios rejected credentials", zap.Int("status", resp.StatusCode))
		return nil, &ESIOSError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.Warn("esios rate limit exceeded", zap.String("retry_after", retryAfter))
		return nil, &ESIOSError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		log.Warn("esios error status", zap.Int("status", resp.StatusCode))
		return nil, &ESIOSError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var result model.IndicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Warn("esios decode failed", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Info("esios success", zap.Int("values", len(result.Indicator.Values)), zap.Duration("duration", duration))

	c.Cache.Set(cacheKey, &result)
	return &result, nil
}

// validateAPIKey only checks presence; the key is otherwise opaque.
func (c *ESIOSClient) validateAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ESIOSError{
			Code:    "MISSING_API_KEY",
			Message: "API key is required",
		}
	}
	return nil
}

func (c *ESIOSClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func statusLabel(resp *http.Response, err error) string {
	if err != nil || resp == nil {
		return "transport_error"
	}
	return fmt.Sprintf("%d", resp.StatusCode)
}
