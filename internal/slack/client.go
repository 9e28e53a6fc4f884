// Package slack is a thin client for the handful of Slack Web API methods the
// bot needs. Only the data shapes the core consumes are modeled.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/victornm/kudos/internal/modal"
)

const (
	defaultBaseURL = "https://slack.com/api/"
	// attachmentColor is the accent color of every message the bot sends.
	attachmentColor = "#0015ff"

	fetchMaxRetries = 3
)

type Config struct {
	BotToken string
	// BaseURL overrides the Slack API endpoint, used in tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	token string
	base  string
	http  *http.Client
}

func NewClient(c Config) *Client {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		token: c.BotToken,
		base:  base,
		http:  hc,
	}
}

// ResolveDisplayName returns the user's display name, falling back to the
// real name when the display name is unset.
func (c *Client) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	var resp struct {
		apiResponse
		Profile struct {
			DisplayName string `json:"display_name"`
			RealName    string `json:"real_name"`
		} `json:"profile"`
	}

	q := url.Values{"user": {userID}}
	if err := c.get(ctx, "users.profile.get", q, &resp); err != nil {
		return "", fmt.Errorf("slack: get profile: user=%s: %w", userID, err)
	}

	if resp.Profile.DisplayName == "" {
		return resp.Profile.RealName, nil
	}

	return resp.Profile.DisplayName, nil
}

// ListEmoji returns the workspace's custom emoji as name -> image URL.
// Alias entries keep their "alias:" pseudo URL.
func (c *Client) ListEmoji(ctx context.Context) (map[string]string, error) {
	var resp struct {
		apiResponse
		Emoji map[string]string `json:"emoji"`
	}

	if err := c.get(ctx, "emoji.list", nil, &resp); err != nil {
		return nil, fmt.Errorf("slack: list emoji: %w", err)
	}

	return resp.Emoji, nil
}

// PostMessage posts a plain text message to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	return c.post(ctx, "chat.postMessage", map[string]any{
		"channel": channelID,
		"text":    text,
	})
}

// PostImage posts a message with an attached image to a channel.
func (c *Client) PostImage(ctx context.Context, channelID, text, imageURL, altText string) error {
	return c.post(ctx, "chat.postMessage", map[string]any{
		"channel":     channelID,
		"text":        text,
		"attachments": imageAttachments(imageURL, altText),
	})
}

// PostEphemeral sends a message only the given user can see.
func (c *Client) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	return c.post(ctx, "chat.postEphemeral", map[string]any{
		"channel": channelID,
		"user":    userID,
		"text":    text,
	})
}

// PostEphemeralImage sends an image message only the given user can see.
func (c *Client) PostEphemeralImage(ctx context.Context, channelID, userID, text, imageURL, altText string) error {
	return c.post(ctx, "chat.postEphemeral", map[string]any{
		"channel":     channelID,
		"user":        userID,
		"text":        text,
		"attachments": imageAttachments(imageURL, altText),
	})
}

// OpenView opens a modal for the interaction identified by triggerID.
func (c *Client) OpenView(ctx context.Context, triggerID string, view modal.View) error {
	return c.post(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
}

// Fetch downloads raw bytes, retrying transient failures with exponential
// backoff. Used for emoji images hosted on Slack's public CDN; no
// authorization header is sent since the URL is not a Slack API endpoint.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		data, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	return data, nil
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) ok() error {
	if !r.OK {
		return fmt.Errorf("slack api error: %s", r.Error)
	}
	return nil
}

type checker interface {
	ok() error
}

func (c *Client) get(ctx context.Context, method string, q url.Values, out checker) error {
	u := c.base + method
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, method string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("slack: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+method, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("slack: %s: %w", method, err)
	}

	return nil
}

func (c *Client) do(req *http.Request, out checker) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return out.ok()
}

func imageAttachments(imageURL, altText string) []map[string]any {
	return []map[string]any{
		{
			"color": attachmentColor,
			"blocks": []map[string]any{
				{
					"type":      "image",
					"image_url": imageURL,
					"alt_text":  altText,
				},
			},
		},
	}
}
