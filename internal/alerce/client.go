package alerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/httpclient"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

const (
	classifiersCacheKey = "classifiers"
	maxResponseBytes    = 32 << 20
	errorPreviewBytes   = 500
)

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		SiteURL:                conf.DefaultSiteURL,
		APIURL:                 conf.DefaultAPIURL,
		LCClassifierVersion:    conf.DefaultClassifierVersion,
		StampClassifierVersion: conf.DefaultClassifierVersion,
		Timeout:                30 * time.Second,
		RateLimit:              5,
		Burst:                  5,
		CacheTTL:               24 * time.Hour,
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 60 * time.Second,
		},
	}
}

// ConfigFromSettings maps the alerce settings section onto a client Config.
func ConfigFromSettings(s *conf.AlerceSettings) Config {
	return Config{
		SiteURL:                s.SiteURL,
		APIURL:                 s.APIURL,
		LCClassifierVersion:    s.LCClassifierVersion,
		StampClassifierVersion: s.StampClassifierVersion,
		Timeout:                s.Timeout,
		RateLimit:              s.RateLimit,
		Burst:                  s.Burst,
		CacheTTL:               s.CacheTTL,
		Breaker: BreakerConfig{
			Enabled:     s.Breaker.Enabled,
			MaxFailures: s.Breaker.MaxFailures,
			OpenTimeout: s.Breaker.OpenTimeout,
		},
	}
}

// pageRecorder is implemented by recorders that track result pages.
type pageRecorder interface {
	RecordPage(alerts int)
}

// breakerRecorder is implemented by recorders that track breaker state.
type breakerRecorder interface {
	SetBreakerState(state int)
}

// Option customizes a Client.
type Option func(*Client)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithTransport replaces the HTTP transport, typically with a mock.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithClock overrides the time source used for relative time filters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client provides methods for interacting with the ALeRCE API.
// Safe for concurrent use.
type Client struct {
	config    Config
	http      *httpclient.Client
	transport http.RoundTripper
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	cache     *cache.Cache
	recorder  metrics.Recorder
	now       func() time.Time
	log       logger.Logger
}

// NewClient creates a new ALeRCE API client.
func NewClient(config Config, opts ...Option) (*Client, error) {
	defaults := DefaultConfig()
	if config.APIURL == "" {
		config.APIURL = defaults.APIURL
	}
	if config.SiteURL == "" {
		config.SiteURL = defaults.SiteURL
	}
	if config.LCClassifierVersion == "" {
		config.LCClassifierVersion = defaults.LCClassifierVersion
	}
	if config.StampClassifierVersion == "" {
		config.StampClassifierVersion = defaults.StampClassifierVersion
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}

	for _, raw := range []string{config.APIURL, config.SiteURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, errors.Newf("invalid ALeRCE URL %q", raw).
				Category(errors.CategoryConfiguration).
				Component("alerce").
				Build()
		}
	}
	config.APIURL = strings.TrimRight(config.APIURL, "/")
	config.SiteURL = strings.TrimRight(config.SiteURL, "/")

	c := &Client{
		config:   config,
		cache:    cache.New(config.CacheTTL, 0),
		recorder: metrics.NewNoOpRecorder(),
		now:      time.Now,
		log:      GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = httpclient.New(&httpclient.Config{
		DefaultTimeout: config.Timeout,
		UserAgent:      httpclient.DefaultUserAgent,
		Transport:      c.transport,
	})

	if config.RateLimit > 0 {
		burst := max(config.Burst, 1)
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	if config.Breaker.Enabled {
		c.breaker = c.newBreaker(config.Breaker)
	}

	c.log.Info("ALeRCE client initialized",
		logger.String("api_url", config.APIURL),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("rate_limit", config.RateLimit),
		logger.Bool("breaker", config.Breaker.Enabled))

	return c, nil
}

func (c *Client) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultConfig().Breaker.MaxFailures
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        BrokerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// only upstream outages count against the breaker
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch errors.CategoryOf(err) {
			case errors.CategoryNetwork, errors.CategoryTimeout:
				return false
			default:
				return true
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			if br, ok := c.recorder.(breakerRecorder); ok {
				br.SetBreakerState(int(to))
			}
		},
	})
}

// Config returns the effective client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

// ObjectURL returns the web page of an object.
func (c *Client) ObjectURL(oid string) string {
	return fmt.Sprintf("%s/%s/%s", c.config.SiteURL, "object", oid)
}

// FetchClassifiers retrieves classifier metadata. When the request fails and
// a previous response is still cached, the cached copy is returned instead.
func (c *Client) FetchClassifiers(ctx context.Context) ([]ClassifierInfo, error) {
	var classifiers []ClassifierInfo
	err := c.doRequest(ctx, metrics.OpClassifiers, http.MethodGet, c.config.APIURL+"/classifiers", &classifiers)
	if err == nil {
		c.cache.Set(classifiersCacheKey, classifiers, cache.DefaultExpiration)
		return classifiers, nil
	}

	if cached, found := c.cache.Get(classifiersCacheKey); found {
		if list, ok := cached.([]ClassifierInfo); ok {
			c.recorder.RecordOperation(metrics.OpClassifierCache, metrics.StatusFallback)
			c.log.Warn("serving cached classifier metadata after refresh failure",
				logger.Error(err),
				logger.Int("classifiers", len(list)))
			return list, nil
		}
	}
	return nil, err
}

// FetchAlerts runs a search and returns the alerts of every fetched page in
// order. Pages are requested until the response reports no further page, the
// page limit is reached, or no next page number is given. Any failure aborts
// the whole search.
func (c *Client) FetchAlerts(ctx context.Context, params QueryParameters) ([]*Alert, error) {
	type cursor struct {
		page    int
		fetched int
	}

	limit := params.pageLimit()
	now := c.now()
	var alerts []*Alert

	for cur := (cursor{page: 1}); ; {
		payload := BuildPayload(params, cur.page, now)
		endpoint := c.config.APIURL + "/objects?" + payload.Values().Encode()

		var resp searchResponse
		if err := c.doRequest(ctx, metrics.OpObjects, http.MethodGet, endpoint, &resp); err != nil {
			return nil, err
		}
		alerts = append(alerts, resp.Items...)
		if pr, ok := c.recorder.(pageRecorder); ok {
			pr.RecordPage(len(resp.Items))
		}

		c.log.Debug("fetched result page",
			logger.Int("page", resp.Page),
			logger.Int("items", len(resp.Items)),
			logger.Bool("has_next", resp.HasNext),
			logger.Int("total", resp.Total))

		cur = cursor{page: resp.Next, fetched: cur.fetched + 1}
		if !resp.HasNext || resp.Page >= limit || resp.Next <= 0 || cur.fetched >= limit {
			break
		}
	}

	return alerts, nil
}

// FetchAlert retrieves a single object by identifier.
func (c *Client) FetchAlert(ctx context.Context, oid string) (*Alert, error) {
	oid = strings.TrimSpace(oid)
	if oid == "" {
		return nil, errors.Newf("object identifier must not be empty").
			Category(errors.CategoryValidation).
			Component("alerce").
			Build()
	}

	var alert Alert
	endpoint := c.config.APIURL + "/objects/" + url.PathEscape(oid)
	if err := c.doRequest(ctx, metrics.OpObject, http.MethodPost, endpoint, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// doRequest performs one API call with rate limiting, the optional breaker
// and metrics, decoding a 2xx JSON body into result.
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, result any) error {
	start := time.Now()

	err := c.wait(ctx, op)
	if err == nil {
		if c.breaker != nil {
			_, err = c.breaker.Execute(func() (any, error) {
				return nil, c.roundTrip(ctx, op, method, endpoint, result)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				err = errors.New(fmt.Errorf("ALeRCE unavailable: %w", err)).
					Category(errors.CategoryIntegration).
					Context("operation", op).
					Component("alerce").
					Build()
			}
		} else {
			err = c.roundTrip(ctx, op, method, endpoint, result)
		}
	}

	c.recorder.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		c.recorder.RecordOperation(op, metrics.StatusError)
		c.recorder.RecordError(op, string(errors.CategoryOf(err)))
		return err
	}
	c.recorder.RecordOperation(op, metrics.StatusSuccess)
	return nil
}

// wait blocks on the rate limiter
func (c *Client) wait(ctx context.Context, op string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.New(fmt.Errorf("rate limiter: %w", err)).
			Category(contextCategory(ctx, errors.CategoryLimit)).
			Context("operation", op).
			Component("alerce").
			Build()
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryValidation).
			Context("method", method).
			Component("alerce").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	c.log.Trace("ALeRCE API request",
		logger.String("method", method),
		logger.String("operation", op),
		logger.String("url", endpoint))

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.Error("ALeRCE API request failed",
			logger.Error(err),
			logger.String("method", method),
			logger.String("operation", op))
		category := contextCategory(ctx, errors.CategoryNetwork)
		if errors.Is(err, context.DeadlineExceeded) {
			category = errors.CategoryTimeout
		}
		return errors.Newf("HTTP request failed: %w", err).
			Category(category).
			Context("method", method).
			Timing(op, time.Since(start)).
			NetworkContext(endpoint, c.config.Timeout).
			Component("alerce").
			Build()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug("failed to close response body", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Newf("failed to read response body: %w", err).
			Category(contextCategory(ctx, errors.CategoryNetwork)).
			Context("operation", op).
			Context("status_code", resp.StatusCode).
			Component("alerce").
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := string(body)
		if len(preview) > errorPreviewBytes {
			preview = preview[:errorPreviewBytes] + "..."
		}
		c.log.Warn("ALeRCE API error response",
			logger.Int("status_code", resp.StatusCode),
			logger.String("operation", op),
			logger.String("response_preview", preview))
		return errors.Newf("ALeRCE API error (status %d): %s", resp.StatusCode, preview).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("operation", op).
			Component("alerce").
			Build()
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		preview := string(body)
		if len(preview) > errorPreviewBytes {
			preview = preview[:errorPreviewBytes] + "..."
		}
		c.log.Error("failed to parse ALeRCE response",
			logger.Error(err),
			logger.String("operation", op),
			logger.String("response_preview", preview))
		return errors.Newf("failed to parse ALeRCE response: %w", err).
			Category(errors.CategoryIntegration).
			Context("operation", op).
			Component("alerce").
			Build()
	}
	return nil
}

// getErrorCategory maps an HTTP status code to an error category
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return errors.CategoryConfiguration
	case statusCode == http.StatusNotFound:
		return errors.CategoryNotFound
	case statusCode == http.StatusTooManyRequests:
		return errors.CategoryLimit
	case statusCode >= 400 && statusCode < 500:
		return errors.CategoryHTTP
	default:
		return errors.CategoryNetwork
	}
}

// contextCategory prefers cancellation and timeout over the fallback
func contextCategory(ctx context.Context, fallback errors.ErrorCategory) errors.ErrorCategory {
	switch ctx.Err() {
	case context.Canceled:
		return errors.CategoryCancellation
	case context.DeadlineExceeded:
		return errors.CategoryTimeout
	default:
		return fallback
	}
}
