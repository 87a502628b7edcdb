package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/chatwidget/internal/config"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// Completer turns an ordered list of turns into one reply.
// A missing reply text is not an error: implementations return models.FallbackReply.
type Completer interface {
	Complete(ctx context.Context, turns []models.Turn) (string, error)
}

// HTTPDoer is the part of tls_client.HttpClient the REST client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the generateContent REST endpoint
type Client struct {
	httpClient HTTPDoer
	apiKey     string
	endpoint   string
	model      string
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithModel sets the model name used in the request path
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithEndpoint sets the API base URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the default TLS client
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a REST client. The API key is required.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.ErrMissingAPIKey
	}

	client := &Client{
		apiKey:   apiKey,
		endpoint: models.EndpointBase,
		model:    models.DefaultModel,
		timeout:  60 * time.Second,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := newTransport(client.timeout)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// newTransport builds the default transport; replaced in tests
var newTransport = newTLSClient

// newTLSClient creates the default transport with a browser TLS profile.
// The transport deadline matches the request timeout; 0 leaves it unbounded.
func newTLSClient(timeout time.Duration) (HTTPDoer, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutMilliseconds(int(timeout.Milliseconds())),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// URL returns the generateContent URL for the configured model
func (c *Client) URL() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
}

// New builds the completer selected by cfg.Backend
func New(cfg config.Config, logger *slog.Logger) (Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "sdk":
		return NewSDKClient(context.Background(), cfg.APIKey,
			WithSDKModel(cfg.Model),
			WithSDKTimeout(cfg.RequestTimeout()),
			WithSDKLogger(logger),
		)
	default:
		return NewClient(cfg.APIKey,
			WithModel(cfg.Model),
			WithEndpoint(cfg.Endpoint),
			WithTimeout(cfg.RequestTimeout()),
			WithLogger(logger),
		)
	}
}
