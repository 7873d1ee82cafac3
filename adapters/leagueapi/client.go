package leagueapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/Pallas/pkg/contracts"
	"github.com/XavierBriggs/Pallas/pkg/models"
)

const (
	// DefaultBaseURL is used when Config.BaseURL is empty
	DefaultBaseURL = "http://localhost:3001/api/v1"
	userAgent      = "Pallas/1.0 (League Standings)"
	defaultTimeout = 10 * time.Second

	tokenPath   = "/getAccessToken"
	matchesPath = "/getAllMatches"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements the FixtureSource interface for the league API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	stepTimeout time.Duration
	logger      *logrus.Logger
}

// Ensure Client implements FixtureSource
var _ contracts.FixtureSource = (*Client)(nil)

// Config holds configuration for the league API client
type Config struct {
	BaseURL     string // e.g., "http://localhost:3001/api/v1"
	HTTPClient  *http.Client
	StepTimeout time.Duration // applied to each of the two requests separately
	Logger      *logrus.Logger
}

// NewClient creates a new league API client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		stepTimeout: stepTimeout,
		logger:      logger,
	}
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchFixtures runs the two-step handshake: token first, then the protected
// fixtures endpoint. The second request is never issued if the first fails.
func (c *Client) FetchFixtures(ctx context.Context) ([]models.Match, error) {
	token, err := c.FetchAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	return c.FetchMatches(ctx, token)
}

// FetchAccessToken requests a bearer token from the unauthenticated endpoint
func (c *Client) FetchAccessToken(ctx context.Context) (string, error) {
	var resp tokenResponse
	if err := c.getJSON(ctx, tokenPath, "", &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, &TransportError{Step: StepToken, Err: err})
	}

	if !resp.Success {
		return "", fmt.Errorf("%w: server reported failure", ErrAuthentication)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthentication)
	}

	return resp.AccessToken, nil
}

// FetchMatches requests the fixture collection using a previously obtained token
func (c *Client) FetchMatches(ctx context.Context, token string) ([]models.Match, error) {
	var resp matchesResponse
	if err := c.getJSON(ctx, matchesPath, token, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataFetch, &TransportError{Step: StepMatches, Err: err})
	}

	if !resp.Success {
		return nil, fmt.Errorf("%w: server reported failure", ErrDataFetch)
	}

	matches := resp.Matches
	if matches == nil {
		matches = []models.Match{}
	}

	c.logger.WithFields(logrus.Fields{
		"base_url": c.baseURL,
		"matches":  len(matches),
	}).Debug("fetched fixtures")

	return matches, nil
}

// getJSON performs a single GET and decodes the envelope into out.
// A non-2xx status is only an error when the body is not a valid envelope,
// since the API reports refusals as {"success": false}.
func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
		}
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

// API response structures matching the league API JSON format

type tokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
}

type matchesResponse struct {
	Success bool           `json:"success"`
	Matches []models.Match `json:"matches"`
}
