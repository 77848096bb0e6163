package dingstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Production endpoints. Both are overridable via the builder for testing.
const (
	DefaultTokenURL   = "https://oapi.dingtalk.com/gettoken"
	DefaultGatewayURL = "https://api.dingtalk.com/v1.0/gateway/connections/open"
)

type tokenResponse struct {
	ErrCode     int    `json:"errcode"`
	AccessToken string `json:"accessToken"`
	ErrMsg      string `json:"errmsg"`
	ExpiresIn   int    `json:"expiresIn"`
}

type endpointResponse struct {
	Endpoint string `json:"endpoint"`
	Ticket   string `json:"ticket"`
}

// Token returns a valid access token, hitting the token endpoint only when
// the cached token has expired.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.creds.cachedToken(c.now()); ok {
		return token, nil
	}
	return c.fetchToken(ctx)
}

// fetchToken unconditionally fetches a fresh token and stores it together
// with its expiry.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	clientID, clientSecret := c.creds.identity()

	u := fmt.Sprintf("%s?appkey=%s&appsecret=%s",
		c.tokenURL, url.QueryEscape(clientID), url.QueryEscape(clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &AuthError{Message: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Status: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{Status: resp.StatusCode, Message: string(body)}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if token.ErrCode != 0 {
		return "", &AuthError{ErrCode: token.ErrCode, Message: token.ErrMsg}
	}

	expiresAt := c.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	c.creds.storeToken(token.AccessToken, expiresAt)

	c.logger.Debug("access token refreshed",
		zap.Time("expiresAt", expiresAt))

	return token.AccessToken, nil
}

// Endpoint negotiates a single-use websocket URL. It always forces a token
// fetch first: endpoints are one-shot and each negotiation authenticates
// afresh.
func (c *Client) Endpoint(ctx context.Context) (string, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(c.creds.snapshot())
	if err != nil {
		return "", &NegotiationError{Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", &NegotiationError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access-token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NegotiationError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NegotiationError{Status: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &NegotiationError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var ep endpointResponse
	if err := json.Unmarshal(respBody, &ep); err != nil {
		return "", &NegotiationError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if ep.Endpoint == "" || ep.Ticket == "" {
		return "", &NegotiationError{Status: resp.StatusCode, Message: "incomplete endpoint response"}
	}

	c.logger.Debug("endpoint negotiated", zap.String("endpoint", ep.Endpoint))

	return fmt.Sprintf("%s?ticket=%s", ep.Endpoint, ep.Ticket), nil
}
