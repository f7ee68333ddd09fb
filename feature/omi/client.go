package omi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"omi-sync/feature/conversation/models"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the API rejects the key.
var ErrUnauthorized = errors.New("omi: unauthorized")

// ErrRateLimited is returned when a page stays rate limited after MaxRetries.
var ErrRateLimited = errors.New("omi: rate limited")

// StatusError is an unexpected HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("omi: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client lists conversations from the Omi developer API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("source", "omi")),
	}
}

// ListConversations returns every conversation, oldest page first. It fails
// as a whole: on any error, including cancellation, no conversations are
// returned.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var all []models.Conversation

	for offset := 0; ; offset += c.cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("omi: listing interrupted: %w", err)
		}

		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		c.logger.Info("Fetched conversations", zap.Int("page", len(page)), zap.Int("total", len(all)))

		if len(page) < c.cfg.PageSize {
			break
		}
		if err := wait(ctx, c.cfg.RequestDelay()); err != nil {
			return nil, fmt.Errorf("omi: listing interrupted: %w", err)
		}
	}

	return all, nil
}

// fetchPage requests one page, retrying while the API answers 429.
func (c *Client) fetchPage(ctx context.Context, offset int) ([]models.Conversation, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.get(ctx, offset)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := c.retryAfter(resp.Header.Get("Retry-After"))
			drain(resp)
			if attempt >= c.cfg.MaxRetries {
				return nil, fmt.Errorf("%w after %d retries", ErrRateLimited, attempt)
			}
			c.logger.Warn("Rate limited, backing off", zap.Duration("retry_after", delay), zap.Int("offset", offset))
			if err := wait(ctx, delay); err != nil {
				return nil, fmt.Errorf("omi: listing interrupted: %w", err)
			}
			continue
		}

		return decodePage(resp)
	}
}

func (c *Client) get(ctx context.Context, offset int) (*http.Response, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/user/conversations")
	if err != nil {
		return nil, fmt.Errorf("omi: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("include_transcript", "true")
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("omi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omi: request offset %d: %w", offset, err)
	}
	return resp, nil
}

func decodePage(resp *http.Response) ([]models.Conversation, error) {
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page []models.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("omi: decode page: %w", err)
	}
	return page, nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func (c *Client) retryAfter(header string) time.Duration {
	fallback := time.Duration(c.cfg.DefaultRetryAfterSeconds) * time.Second
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
