package upload

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Config holds configuration for the uploaders.
type Config struct {
	// ChunkSize is the size of one APPEND segment.
	// Default: 4 MiB
	ChunkSize int64

	// RequestTimeout bounds a single HTTP call.
	// Default: 5 minutes
	RequestTimeout time.Duration

	// RetryMax is the number of transport level retries of a single call.
	// Default: 0, a failed phase fails the upload
	RetryMax int

	// PollInterval is the wait before every STATUS check.
	// Default: 10 seconds
	PollInterval time.Duration

	// MaxPolls is the number of STATUS checks before giving up.
	// Default: 30
	MaxPolls int

	// Proxy routes every request through the given HTTP proxy.
	Proxy *url.URL

	// HTTPClient is used as is when set; the fields above that configure
	// the client are ignored.
	HTTPClient *retryablehttp.Client
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      4 * units.MiB,
		RequestTimeout: 5 * time.Minute,
		RetryMax:       0,
		PollInterval:   10 * time.Second,
		MaxPolls:       30,
	}
}

// Timeout returns RequestTimeout, or its default when unset.
func (c Config) Timeout() time.Duration {
	return c.withDefaults().RequestTimeout
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = defaults.MaxPolls
	}
	return c
}

func newHTTPClient(config Config, logger log.Logger) *retryablehttp.Client {
	if config.HTTPClient != nil {
		return config.HTTPClient
	}

	client := retryhttp.NewClient(logger)
	client.RetryMax = config.RetryMax
	// Hand the final response back so status codes map to typed errors.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = config.RequestTimeout
	if config.Proxy != nil {
		transport := cleanhttp.DefaultPooledTransport()
		transport.Proxy = http.ProxyURL(config.Proxy)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient

	return client
}
