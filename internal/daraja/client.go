package daraja

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

	"github.com/okoapay/c2b-console/internal/config"
	"github.com/okoapay/c2b-console/pkg/types"
	"github.com/rs/zerolog/log"
)

// TokenCache stores OAuth access tokens per consumer key. Backed by Redis in
// production, faked in tests.
type TokenCache interface {
	GetGatewayToken(ctx context.Context, consumerKey string) (string, error)
	SetGatewayToken(ctx context.Context, consumerKey, token string, ttl time.Duration) error
}

// Credentials are the per-shortcode Daraja app credentials.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenCache
}

const defaultExpiresIn = 3599

// tokenSafetyWindow is shaved off the advertised expiry so a token is never
// used right at its deadline.
const tokenSafetyWindow = 30 * time.Second

func NewClient(cfg *config.DarajaConfig, tokens TokenCache) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
	}
}

// AccessToken returns a cached token for the consumer key or fetches a fresh
// one via the client-credentials grant.
func (c *Client) AccessToken(ctx context.Context, creds Credentials) (string, error) {
	if c.tokens != nil {
		if token, err := c.tokens.GetGatewayToken(ctx, creds.ConsumerKey); err == nil && token != "" {
			return token, nil
		}
	}

	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create oauth request: %w", err)
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read oauth response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("oauth failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var tokenResp types.OAuthTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse oauth response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("oauth response missing access_token")
	}

	expiresIn, err := strconv.Atoi(tokenResp.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	if c.tokens != nil {
		ttl := time.Duration(expiresIn)*time.Second - tokenSafetyWindow
		if ttl > 0 {
			if err := c.tokens.SetGatewayToken(ctx, creds.ConsumerKey, tokenResp.AccessToken, ttl); err != nil {
				log.Warn().Err(err).Msg("Failed to cache Daraja access token")
			}
		}
	}

	return tokenResp.AccessToken, nil
}

// RegisterURLs calls the Daraja C2B RegisterURL API.
func (c *Client) RegisterURLs(ctx context.Context, creds Credentials, req *types.RegisterURLRequest) (*types.RegisterURLResponse, error) {
	// Daraja only calls publicly reachable HTTPS endpoints.
	for label, url := range map[string]string{
		"ValidationURL":   req.ValidationURL,
		"ConfirmationURL": req.ConfirmationURL,
	} {
		if err := checkCallbackURL(label, url); err != nil {
			return nil, err
		}
	}

	respBody, err := c.doRequest(ctx, creds, "/mpesa/c2b/v1/registerurl", req)
	if err != nil {
		return nil, err
	}

	var resp types.RegisterURLResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse registerurl response: %w", err)
	}
	return &resp, nil
}

// SimulateC2B calls the sandbox-only C2B Simulate API.
func (c *Client) SimulateC2B(ctx context.Context, creds Credentials, req *types.SimulateC2BRequest) (*types.SimulateC2BResponse, error) {
	respBody, err := c.doRequest(ctx, creds, "/mpesa/c2b/v1/simulate", req)
	if err != nil {
		return nil, err
	}

	var resp types.SimulateC2BResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse simulate response: %w", err)
	}
	return &resp, nil
}

// checkCallbackURL validates a callback URL before it goes to Daraja. Errors
// name only the scheme and host: the path embeds the webhook token and must
// never end up in a log line.
func checkCallbackURL(label, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s is not a valid URL", label)
	}
	origin := u.Scheme + "://" + u.Host

	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%s must be https:// (got %s): use a tunnel and register the public URL", label, origin)
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" {
		return fmt.Errorf("%s cannot be localhost (got %s): Daraja can't reach a local machine without a tunnel", label, origin)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, creds Credentials, path string, body any) ([]byte, error) {
	token, err := c.AccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal request body")
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create HTTP request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Error().Err(err).
			Str("url", url).
			Int64("duration_ms", duration).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).
			Str("url", url).
			Int64("duration_ms", duration).
			Msg("Failed to read response body")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("url", url).
			Int64("duration_ms", duration).
			Str("body", string(respBody)).
			Msg("Daraja API error response")
		return nil, fmt.Errorf("daraja error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	log.Info().
		Int("status", resp.StatusCode).
		Str("url", url).
		Int64("duration_ms", duration).
		Msg("Daraja API request successful")

	return respBody, nil
}
