// Package telegram publishes messages through the Telegram Bot API.
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

	"github.com/tawjihi/mathbot/internal/post"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 64 << 10
)

// Config holds the publisher settings.
type Config struct {
	Token   string        `koanf:"token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	ChatID  string        `koanf:"chat_id" env:"TELEGRAM_CHAT_ID" validate:"required"`
	BaseURL string        `koanf:"base_url" env:"MATHBOT_TELEGRAM_BASE_URL" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultConfig returns a Config pointing at the public Bot API.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}

// Message is the part of a sent message the caller cares about.
type Message struct {
	MessageID int `json:"message_id"`
}

// PublishError reports a failed sendMessage call. StatusCode is zero when
// the request never got a response.
type PublishError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("telegram sendMessage: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("telegram sendMessage: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Client sends messages to one chat.
type Client struct {
	cfg    Config
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg, client: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK     bool     `json:"ok"`
	Result *Message `json:"result"`
}

// Publish sends text with post.ParseMode. It makes exactly one
// attempt; only HTTP 200 counts as delivered.
func (c *Client) Publish(ctx context.Context, text string) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.cfg.ChatID,
		Text:      text,
		ParseMode: post.ParseMode,
	})
	if err != nil {
		return nil, &PublishError{Err: fmt.Errorf("encode request: %w", err)}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/bot" + c.cfg.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &PublishError{Err: c.redact(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &PublishError{Err: c.redact(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &PublishError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", c.redact(err))}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &PublishError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	msg := &Message{}
	var decoded sendMessageResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Result != nil {
		msg = decoded.Result
	}
	return msg, nil
}

// redact strips the bot token out of transport errors, which embed the
// request URL.
func (c *Client) redact(err error) error {
	if c.cfg.Token == "" {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	msg := err.Error()
	if !strings.Contains(msg, c.cfg.Token) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, c.cfg.Token, "<redacted>"))
}
