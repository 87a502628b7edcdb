package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// maxErrorBody limits how much of a failed response is read for diagnostics
const maxErrorBody = 4096

// errMalformedBody marks a success response that is not JSON at all
var errMalformedBody = errors.New("response body is not valid JSON")

// Complete sends the turns to the endpoint and returns the reply text.
// Missing reply fields yield models.FallbackReply. Non-success statuses yield
// *errors.APIError. Transport failures and undecodable bodies yield
// *errors.NetworkError or *errors.TimeoutError.
func (c *Client) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(models.NewGenerateRequest(turns))
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := c.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(models.APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("no answer within %s", c.timeout))
		}
		return "", apierrors.NewNetworkError("generate content", endpoint, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("completion_upstream_failure",
			"status", resp.StatusCode,
			"model", c.model,
			"body", string(errorBody),
		)
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "generate content failed", string(errorBody))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError("reading response body")
		}
		return "", apierrors.NewNetworkError("read response", endpoint, err)
	}

	if !gjson.ValidBytes(body) {
		c.logger.Warn("completion_invalid_json", "status", resp.StatusCode, "bytes", len(body))
		return "", apierrors.NewNetworkError("decode response", endpoint, errMalformedBody)
	}

	return c.parseReply(body), nil
}

// parseReply extracts the first candidate's first part text from a valid JSON body.
// Anything missing along the way degrades to the fallback reply.
func (c *Client) parseReply(body []byte) string {
	parsed := gjson.ParseBytes(body)
	text := parsed.Get(PathReplyText)
	if !text.Exists() || text.String() == "" {
		c.logger.Debug("completion_missing_text",
			"finish_reason", parsed.Get(PathFinishReason).String(),
			"block_reason", parsed.Get(PathBlockReason).String(),
		)
		return models.FallbackReply
	}

	return text.String()
}
