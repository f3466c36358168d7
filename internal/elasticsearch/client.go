// Package elasticsearch implements the engine operations index-rotator needs:
// index existence, creation, deletion and mapping reads, plus alias reads and
// the atomic _aliases update.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/retry"
)

const (
	defaultURL         = "http://localhost:9200"
	defaultMaxRetries  = 3
	defaultPingTimeout = 5 * time.Second
)

// Config holds Elasticsearch client configuration
type Config struct {
	URL                string
	Username           string
	Password           string //nolint:gosec // client credentials
	APIKey             string
	MaxRetries         int
	Timeout            time.Duration
	PingTimeout        time.Duration
	InsecureSkipVerify bool
	Retry              retry.Config
}

// SetDefaults applies default values to the config if not set
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = defaultPingTimeout
	}
}

// Client wraps the Elasticsearch client with index and alias operations.
type Client struct {
	es     *es.Client
	logger logger.Logger
}

// New wraps an existing go-elasticsearch client.
func New(esClient *es.Client, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{es: esClient, logger: log}
}

// Connect builds a client from cfg and verifies the cluster answers a ping,
// retrying with exponential backoff while the failure looks transient.
func Connect(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	url := normalizeURL(cfg.URL)
	clientConfig := es.Config{
		Addresses:  []string{url},
		Transport:  createTransport(cfg),
		MaxRetries: cfg.MaxRetries,
	}

	switch {
	case cfg.APIKey != "":
		clientConfig.APIKey = cfg.APIKey
	case cfg.Username != "" && cfg.Password != "":
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	log.Debug("Verifying Elasticsearch connection", logger.String("url", url))

	client := New(esClient, log)
	if pingErr := retry.Retry(ctx, cfg.Retry, func() error {
		return client.ping(ctx, cfg.PingTimeout)
	}); pingErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, pingErr)
	}

	log.Debug("Elasticsearch connection established", logger.String("url", url))
	return client, nil
}

// normalizeURL adds the http:// prefix if missing
func normalizeURL(url string) string {
	if url == "" {
		return defaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func createTransport(cfg Config) *http.Transport {
	transport := &http.Transport{
		ResponseHeaderTimeout: cfg.Timeout,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in for development clusters
		}
	}
	return transport
}

func (c *Client) ping(ctx context.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.es.Ping(c.es.Ping.WithContext(pingCtx))
	if err != nil {
		c.logger.Debug("Elasticsearch ping failed", logger.Error(err))
		return fmt.Errorf("ping failed: %w", err)
	}
	defer c.closeResponse(res, "Ping")

	if res.IsError() {
		return fmt.Errorf("ping returned error: %w", decodeResponseError(res))
	}
	return nil
}

// closeResponse drains and closes a response body.
func (c *Client) closeResponse(res *esapi.Response, operation string) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	if err := res.Body.Close(); err != nil {
		c.logger.Debug("Error closing response body",
			logger.String("operation", operation),
			logger.Error(err),
		)
	}
}

// transportError wraps a failed round trip.
func transportError(operation, name string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrEngineUnavailable, operation, name, err)
}
