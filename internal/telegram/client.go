// Package telegram is a minimal Telegram Bot API client covering the methods
// the incident bot uses. *Client implements ports.Messenger.
package telegram

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 45 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom Bot API server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client. It must exceed
// the long-poll timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client talks to the Bot API over HTTPS.
type Client struct {
	token      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Bot API client for token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c
}

// Call invokes method with params encoded as JSON and decodes the result
// into out, which may be nil. A response with ok=false yields an *APIError.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, c.redact(err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope Response
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("%s: unexpected response (status %d): %s", method, resp.StatusCode, truncate(respBody, 200))
	}
	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if p := envelope.Parameters; p != nil {
			apiErr.RetryAfter = time.Duration(p.RetryAfter) * time.Second
			apiErr.MigrateToChatID = p.MigrateToChatID
		}
		return apiErr
	}

	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
	}
	return nil
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.Call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUpdates long-polls for updates starting at req.Offset.
func (c *Client) GetUpdates(ctx context.Context, req *GetUpdatesRequest) ([]Update, error) {
	var updates []Update
	if err := c.Call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*Message, error) {
	var m Message
	if err := c.Call(ctx, "sendMessage", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SendPhoto sends a photo by file id.
func (c *Client) SendPhoto(ctx context.Context, req *SendMediaRequest) (*Message, error) {
	return c.sendMedia(ctx, "sendPhoto", req)
}

// SendAnimation sends an animation by file id.
func (c *Client) SendAnimation(ctx context.Context, req *SendMediaRequest) (*Message, error) {
	return c.sendMedia(ctx, "sendAnimation", req)
}

// SendVideo sends a video by file id.
func (c *Client) SendVideo(ctx context.Context, req *SendMediaRequest) (*Message, error) {
	return c.sendMedia(ctx, "sendVideo", req)
}

func (c *Client) sendMedia(ctx context.Context, method string, req *SendMediaRequest) (*Message, error) {
	var m Message
	if err := c.Call(ctx, method, req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SendLocationMessage sends a map point.
func (c *Client) SendLocationMessage(ctx context.Context, req *SendLocationRequest) (*Message, error) {
	var m Message
	if err := c.Call(ctx, "sendLocation", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PinChatMessage pins a message in a group or channel.
func (c *Client) PinChatMessage(ctx context.Context, req *PinChatMessageRequest) error {
	return c.Call(ctx, "pinChatMessage", req, nil)
}

// SetWebhook registers the webhook URL.
func (c *Client) SetWebhook(ctx context.Context, req *SetWebhookRequest) error {
	return c.Call(ctx, "setWebhook", req, nil)
}

// DeleteWebhook removes the webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, req *DeleteWebhookRequest) error {
	return c.Call(ctx, "deleteWebhook", req, nil)
}

// redact removes the bot token from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if c.token != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.token, "<token>")
	}
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
