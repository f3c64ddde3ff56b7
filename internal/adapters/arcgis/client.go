package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ryanwparks/georeach/internal/pkg/config"
	"github.com/ryanwparks/georeach/internal/pkg/logging"
	"github.com/ryanwparks/georeach/internal/pkg/metrics"
)

// Client is a typed client for the hosted geospatial platform. It owns the
// token handshake, endpoint discovery, and the solve operations. Safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	portalURL  string
	username   string
	password   string
	referer    string
	tokenTTL   time.Duration
	log        *slog.Logger

	mu           sync.Mutex
	token        string
	tokenExpires time.Time

	epMu           sync.Mutex
	serviceAreaURL string
	allocationURL  string
	routeURL       string
}

// NewClient builds a client from configuration. No network calls are made
// until the first operation.
func NewClient(cfg config.GISConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ttl := time.Duration(cfg.TokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		portalURL:  strings.TrimRight(cfg.PortalURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		referer:    cfg.Referer,
		tokenTTL:   ttl,
		log:        logging.Component("arcgis"),
	}
}

// ensureToken returns a valid portal token, generating one if the cached
// token is missing or within a minute of expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.tokenExpires) > time.Minute {
		return c.token, nil
	}
	return c.generateTokenLocked(ctx)
}

// refreshToken discards the cached token and generates a new one. Used
// after the platform rejects a token mid-flight.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	return c.generateTokenLocked(ctx)
}

func (c *Client) generateTokenLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"f":          {"json"},
		"username":   {c.username},
		"password":   {c.password},
		"referer":    {c.referer},
		"expiration": {strconv.Itoa(int(c.tokenTTL.Minutes()))},
	}

	var resp tokenResponse
	if err := c.doForm(ctx, "generate_token", c.portalURL+"/sharing/rest/generateToken", form, &resp); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("token response carried no token")
	}

	c.token = resp.Token
	c.tokenExpires = time.UnixMilli(resp.Expires)
	metrics.TokenRefreshes.Inc()
	c.log.Info("portal token refreshed", "expires", c.tokenExpires)
	return c.token, nil
}

// callForm posts a form to an authenticated endpoint. When the platform
// rejects the token it refreshes once and retries the call.
func (c *Client) callForm(ctx context.Context, operation, endpoint string, form url.Values, out interface{ serviceError() *ServiceError }) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	form.Set("f", "json")
	form.Set("token", token)

	err = c.doForm(ctx, operation, endpoint, form, out)
	var svcErr *ServiceError
	if asServiceError(err, &svcErr) && svcErr.InvalidToken() {
		c.log.Warn("token rejected, refreshing", "operation", operation, "code", svcErr.Code)
		token, err = c.refreshToken(ctx)
		if err != nil {
			return err
		}
		form.Set("token", token)
		err = c.doForm(ctx, operation, endpoint, form, out)
	}
	return err
}

// callGet issues an authenticated GET. Same retry-on-rejected-token
// behavior as callForm.
func (c *Client) callGet(ctx context.Context, operation, endpoint string, query url.Values, out interface{ serviceError() *ServiceError }) error {
	if query == nil {
		query = url.Values{}
	}
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	query.Set("f", "json")
	query.Set("token", token)

	err = c.doGet(ctx, operation, endpoint+"?"+query.Encode(), out)
	var svcErr *ServiceError
	if asServiceError(err, &svcErr) && svcErr.InvalidToken() {
		c.log.Warn("token rejected, refreshing", "operation", operation, "code", svcErr.Code)
		token, err = c.refreshToken(ctx)
		if err != nil {
			return err
		}
		query.Set("token", token)
		err = c.doGet(ctx, operation, endpoint+"?"+query.Encode(), out)
	}
	return err
}

func (c *Client) doForm(ctx context.Context, operation, endpoint string, form url.Values, out interface{ serviceError() *ServiceError }) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	return c.do(req, operation, out)
}

func (c *Client) doGet(ctx context.Context, operation, rawURL string, out interface{ serviceError() *ServiceError }) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	return c.do(req, operation, out)
}

func (c *Client) do(req *http.Request, operation string, out interface{ serviceError() *ServiceError }) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteCalls.WithLabelValues(operation, "transport_error").Inc()
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	metrics.RemoteCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.RemoteCalls.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RemoteCalls.WithLabelValues(operation, "decode_error").Inc()
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	// The platform reports most failures as an error envelope inside an
	// HTTP 200 body.
	if svcErr := out.serviceError(); svcErr != nil {
		metrics.RemoteCalls.WithLabelValues(operation, strconv.Itoa(svcErr.Code)).Inc()
		return svcErr
	}
	metrics.RemoteCalls.WithLabelValues(operation, "ok").Inc()
	return nil
}

func (e errorEnvelope) serviceError() *ServiceError { return e.Error }

func asServiceError(err error, target **ServiceError) bool {
	if err == nil {
		return false
	}
	svcErr, ok := err.(*ServiceError)
	if ok {
		*target = svcErr
	}
	return ok
}
