// Package lexicon queries the Lexicon local API for library metadata about a
// track. The daemon feeds matches into classification prompts as extra
// context. Lookups are best effort: callers treat a failed or empty lookup as
// "no context" and proceed.
package lexicon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taggenius/internal/config"
	"taggenius/internal/logging"
	"taggenius/internal/services"
)

const (
	searchTracksPath   = "/v1/search/tracks"
	defaultHTTPTimeout = 5 * time.Second
)

// Client talks to a running Lexicon local API instance.
type Client struct {
	cfg        config.Lexicon
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Lexicon client from the supplied configuration.
func NewClient(cfg config.Lexicon, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "lexicon"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type searchRequest struct {
	Filter searchFilter `json:"filter"`
}

type searchFilter struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

type searchResponse struct {
	Tracks []json.RawMessage `json:"tracks"`
}

// Lookup searches the Lexicon library for a track and returns the raw JSON of
// the best match, or nil when the library has no match. Transport and decode
// failures are logged and returned tagged services.ErrTransient.
func (c *Client) Lookup(ctx context.Context, title, artist string) (json.RawMessage, error) {
	body, err := json.Marshal(searchRequest{Filter: searchFilter{Artist: artist, Title: title}})
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "lexicon", "lookup", "encode search filter", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + searchTracksPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "lexicon", "lookup", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("lexicon lookup failed", logging.Error(err))
		return nil, services.Wrap(services.ErrTransient, "lexicon", "lookup", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("lexicon lookup failed",
			logging.Int("status", resp.StatusCode),
			logging.String("body", strings.TrimSpace(string(snippet))),
		)
		return nil, services.Wrap(services.ErrTransient, "lexicon", "lookup",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("lexicon response unreadable", logging.Error(err))
		return nil, services.Wrap(services.ErrTransient, "lexicon", "lookup", "decode response", err)
	}
	if len(decoded.Tracks) == 0 {
		return nil, nil
	}
	return decoded.Tracks[0], nil
}
