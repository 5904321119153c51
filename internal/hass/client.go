package hass

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
	"time"
)

var (
	// ErrNotFound is returned when Home Assistant has no state for an entity.
	ErrNotFound = errors.New("entity not found")
	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// Client talks to the Home Assistant REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
}

const (
	defaultBaseURL   = "http://homeassistant.local:8123"
	defaultUserAgent = "tminus/0.1"
	requestTimeout   = 5 * time.Second
	maxTemplateBytes = 64 * 1024
)

// NewClient builds a Client for the instance at baseURL (host:port or full URL).
func NewClient(baseURL, token string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		token:     strings.TrimSpace(token),
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized instance URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Ping checks that the API is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var payload struct {
		Message string `json:"message"`
	}
	return c.doJSON(ctx, http.MethodGet, "/api/", nil, &payload)
}

// State fetches the current state of entityID.
func (c *Client) State(ctx context.Context, entityID string) (State, error) {
	if c == nil {
		return State{}, fmt.Errorf("client is nil")
	}
	id := strings.TrimSpace(entityID)
	if id == "" {
		return State{}, fmt.Errorf("entity id required")
	}
	var payload State
	if err := c.doJSON(ctx, http.MethodGet, "/api/states/"+url.PathEscape(id), nil, &payload); err != nil {
		return State{}, err
	}
	return payload, nil
}

// RenderTemplate renders template through POST /api/template.
func (c *Client) RenderTemplate(ctx context.Context, template string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(templateRequest{Template: template})
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/template", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	rendered, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes))
	if err != nil {
		return "", fmt.Errorf("read template response: %w", err)
	}
	return string(rendered), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and maps error statuses; callers close the body.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s: %w", path, ErrUnauthorized)
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		if msg := strings.TrimSpace(string(detail)); msg != "" {
			return nil, fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	return resp, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse home assistant url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse home assistant url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
