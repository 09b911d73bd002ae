// Package falai is a small client for the fal.ai queue API.
//
// A request is submitted to the queue, its status is polled until it completes,
// and the result document is fetched and decoded into the caller's type.
package falai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueURL     = "https://queue.fal.run"
	DefaultPollInterval = time.Second
)

// Queue statuses reported by fal.ai
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// APIError is a non-2xx answer from the queue API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal.ai returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the fal.ai queue. It is safe for concurrent use.
type Client struct {
	key          string
	queueURL     string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithQueueURL(u string) Option {
	return func(c *Client) { c.queueURL = strings.TrimRight(u, "/") }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client authenticated with key.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		key:          key,
		queueURL:     DefaultQueueURL,
		pollInterval: DefaultPollInterval,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queueSubmission struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
	CancelURL   string `json:"cancel_url"`
}

type queueStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Logs   []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

// Subscribe submits input to model, waits for completion and decodes the result into out.
// Cancelling ctx stops polling and asks fal.ai to cancel the queued request.
func (c *Client) Subscribe(ctx context.Context, model string, input any, out any) error {
	if c.key == "" {
		return errors.New("FAL_KEY is not set")
	}

	sub, err := c.submit(ctx, model, input)
	if err != nil {
		return err
	}
	log := c.logger.With(zap.String("model", model), zap.String("request_id", sub.RequestID))
	log.Debug("fal request queued")

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	seenLogs := 0
	for {
		var status queueStatus
		if err := c.getJSON(ctx, sub.StatusURL+"?logs=1", &status); err != nil {
			c.cancel(sub.CancelURL)
			return fmt.Errorf("poll status: %w", err)
		}
		if status.Status == StatusInProgress {
			for _, l := range status.Logs[min(seenLogs, len(status.Logs)):] {
				log.Debug("fal log", zap.String("message", l.Message))
			}
			seenLogs = len(status.Logs)
		}
		if status.Status == StatusCompleted {
			if status.Error != "" {
				return fmt.Errorf("fal request failed: %s", status.Error)
			}
			break
		}

		select {
		case <-ctx.Done():
			c.cancel(sub.CancelURL)
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := c.getJSON(ctx, sub.ResponseURL, out); err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	log.Debug("fal request completed")
	return nil
}

func (c *Client) submit(ctx context.Context, model string, input any) (queueSubmission, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return queueSubmission{}, fmt.Errorf("encode input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queueURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return queueSubmission{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var sub queueSubmission
	if err := c.do(req, &sub); err != nil {
		return queueSubmission{}, fmt.Errorf("submit %s: %w", model, err)
	}
	if sub.StatusURL == "" || sub.ResponseURL == "" {
		return queueSubmission{}, fmt.Errorf("submit %s: queue response missing status urls", model)
	}
	return sub, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 202 is returned while a request is still queued
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cancel(url string) {
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Key "+c.key)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("fal cancel failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}
