package ckan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUserAgent = "ckanflow/0.1"
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 32 << 20
)

// HTTPConfig configures direct access to the CKAN action API.
type HTTPConfig struct {
	ServerURL string
	UserAgent string
	Timeout   time.Duration
}

// HTTPCatalog reaches the catalog through GET /api/3/action/{action}.
type HTTPCatalog struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPCatalog creates an action API client. A nil client gets one with
// the configured timeout.
func NewHTTPCatalog(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *HTTPCatalog {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPCatalog{
		baseURL:   strings.TrimRight(cfg.ServerURL, "/"),
		userAgent: cfg.UserAgent,
		client:    client,
		logger:    logger,
	}
}

type actionEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// SearchPackages calls package_search.
func (c *HTTPCatalog) SearchPackages(ctx context.Context, query string, rows int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", strconv.Itoa(rows))
	data, err := c.action(ctx, "package_search", params)
	if err != nil {
		return nil, err
	}
	return DecodeSearch(data)
}

// DatastoreSearch calls datastore_search.
func (c *HTTPCatalog) DatastoreSearch(ctx context.Context, resourceID string, limit int) (*DatastoreResult, error) {
	params := url.Values{}
	params.Set("resource_id", resourceID)
	params.Set("limit", strconv.Itoa(limit))
	data, err := c.action(ctx, "datastore_search", params)
	if err != nil {
		return nil, err
	}
	return DecodeDatastore(data)
}

// Close is a no-op; it lets both backends share a shutdown path.
func (c *HTTPCatalog) Close() error {
	return nil
}

func (c *HTTPCatalog) action(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/3/action/%s?%s", c.baseURL, action, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("calling catalog action", "action", action, "server_url", c.baseURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, serviceError(fmt.Sprintf("Network error: %v", err))
	}

	var env actionEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "Unknown error"
		if decodeErr == nil {
			if m, ok := errorMessage(env.Error); ok {
				msg = m
			}
		}
		return nil, serviceError(fmt.Sprintf("CKAN API error (%d): %s", resp.StatusCode, msg))
	}
	if decodeErr != nil {
		return nil, serviceError(fmt.Sprintf("JSON parse error: %v", decodeErr))
	}
	if !env.Success {
		return nil, serviceError(fmt.Sprintf("CKAN API returned success=false: %s", strings.TrimSpace(string(body))))
	}
	return env.Result, nil
}

func transportError(serverURL string, err error) error {
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return serviceError(fmt.Sprintf("Server not found: %s", serverURL))
	case errors.As(err, &netErr) && netErr.Timeout():
		return serviceError(fmt.Sprintf("Request timeout connecting to %s", serverURL))
	default:
		return serviceError(fmt.Sprintf("Network error: %v", err))
	}
}
