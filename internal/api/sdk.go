package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// sdkEndpoint names the SDK backend in errors and logs
const sdkEndpoint = "genai:generateContent"

type genaiModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var newGenAIClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// SDKClient completes through the official Go SDK instead of raw REST calls
type SDKClient struct {
	models  genaiModelsClient
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// SDKOption configures an SDKClient
type SDKOption func(*SDKClient)

// WithSDKModel sets the model name
func WithSDKModel(model string) SDKOption {
	return func(c *SDKClient) {
		c.model = model
	}
}

// WithSDKTimeout bounds each request. Zero disables the bound.
func WithSDKTimeout(timeout time.Duration) SDKOption {
	return func(c *SDKClient) {
		c.timeout = timeout
	}
}

// WithSDKLogger sets the diagnostics logger
func WithSDKLogger(logger *slog.Logger) SDKOption {
	return func(c *SDKClient) {
		c.logger = logger
	}
}

// NewSDKClient creates a completer backed by google.golang.org/genai
func NewSDKClient(ctx context.Context, apiKey string, opts ...SDKOption) (*SDKClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.ErrMissingAPIKey
	}

	client, err := newGenAIClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	c := &SDKClient{
		models:  client.Models,
		model:   models.DefaultModel,
		timeout: 60 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete implements Completer with the same fallback and failure rules as Client
func (c *SDKClient) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, &genai.Content{
			Role:  t.Role.String(),
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", c.classify(ctx, err)
	}

	return c.replyText(resp), nil
}

func (c *SDKClient) classify(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("completion_upstream_failure", "status", apiErr.Code, "model", c.model, "message", apiErr.Message)
		return apierrors.NewAPIError(apiErr.Code, sdkEndpoint, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		c.logger.Warn("completion_upstream_failure", "status", apiErrPtr.Code, "model", c.model, "message", apiErrPtr.Message)
		return apierrors.NewAPIError(apiErrPtr.Code, sdkEndpoint, apiErrPtr.Message)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(fmt.Sprintf("no answer within %s", c.timeout))
	}
	return apierrors.NewNetworkError("generate content", sdkEndpoint, err)
}

func (c *SDKClient) replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return models.FallbackReply
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return models.FallbackReply
	}
	if text := cand.Content.Parts[0].Text; text != "" {
		return text
	}
	c.logger.Debug("completion_missing_text", "finish_reason", string(cand.FinishReason))
	return models.FallbackReply
}
