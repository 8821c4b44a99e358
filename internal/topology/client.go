package topology

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/retry"
)

// Client queries a topology service over HTTP.
//
//	GET {endpoint}/environment                         -> {"url": "..."}
//	GET {endpoint}/search?publication=..&purpose=..    -> {"url": "..."}
//
// 404 means no value. Answers are cached per key.
type Client struct {
	endpoint string
	http     *http.Client
	policy   retry.Policy
	cache    *lru.Cache[string, string]
	logger   *slog.Logger
}

type urlResponse struct {
	URL string `json:"url"`
}

// NewClient creates an HTTP topology client.
func NewClient(cfg config.TopologyConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create topology cache").Build()
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		policy:   retry.FromConfig(cfg.Retry),
		cache:    cache,
		logger:   logger,
	}, nil
}

// EnvironmentURL returns the CM website URL.
func (c *Client) EnvironmentURL(ctx context.Context) (string, error) {
	return c.get(ctx, c.endpoint+"/environment")
}

// SearchQueryURL returns the search query URL for a publication and purpose.
func (c *Client) SearchQueryURL(ctx context.Context, publication, purpose string) (string, error) {
	q := url.Values{}
	q.Set("publication", publication)
	q.Set("purpose", purpose)
	return c.get(ctx, c.endpoint+"/search?"+q.Encode())
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	if v, ok := c.cache.Get(target); ok {
		return v, nil
	}
	var value string
	err := c.policy.Do(ctx, isRetryable, func(ctx context.Context) error {
		v, err := c.fetch(ctx, target)
		if err != nil {
			c.logger.Debug("Topology request failed", logfields.URL(target), logfields.Error(err))
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	c.cache.Add(target, value)
	return value, nil
}

func (c *Client) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTopology, "build topology request").
			WithContext("url", target).
			Build()
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryNetwork, "topology request failed").
			WithContext("url", target).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", errors.NetworkError(fmt.Sprintf("topology service returned %d", resp.StatusCode)).
			WithContext("url", target).
			Retryable().
			Build()
	case resp.StatusCode != http.StatusOK:
		return "", errors.TopologyError(fmt.Sprintf("topology service returned %d", resp.StatusCode)).
			WithContext("url", target).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryNetwork, "read topology response").Retryable().Build()
	}
	var out urlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.WrapError(err, errors.CategoryTopology, "decode topology response").
			WithContext("url", target).
			Build()
	}
	return out.URL, nil
}

func isRetryable(err error) bool {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	return false
}
