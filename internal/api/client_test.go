package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatwidget/internal/config"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/logging"
	"github.com/diogo/chatwidget/internal/models"
)

// mockHTTPClient answers requests through doFunc and remembers the last request
type mockHTTPClient struct {
	doFunc  func(req *http.Request) (*http.Response, error)
	lastReq *http.Request
	body    []byte
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if req.Body != nil {
		m.body, _ = io.ReadAll(req.Body)
	}
	return m.doFunc(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	}
}

func newTestClient(t *testing.T, doer *mockHTTPClient, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithHTTPClient(doer), WithLogger(logging.Discard())}, opts...)
	client, err := NewClient("test-key", opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("  ", WithHTTPClient(&mockHTTPClient{}))
	assert.ErrorIs(t, err, apierrors.ErrMissingAPIKey)
}

func TestNewClient_Defaults(t *testing.T) {
	client := newTestClient(t, &mockHTTPClient{})

	assert.Equal(t, models.DefaultModel, client.Model())
	assert.Equal(t, 60*time.Second, client.timeout)
	assert.Equal(t, models.EndpointBase+"/models/"+models.DefaultModel+":generateContent", client.URL())
}

func TestNewClient_Options(t *testing.T) {
	client := newTestClient(t, &mockHTTPClient{},
		WithModel(models.Model25Pro),
		WithEndpoint("http://localhost:9999/v1beta/"),
		WithTimeout(0),
	)

	assert.Equal(t, "http://localhost:9999/v1beta/models/gemini-2.5-pro:generateContent", client.URL())
	assert.Zero(t, client.timeout)
}

func TestNewClient_TransportTimeoutFollowsRequestTimeout(t *testing.T) {
	orig := newTransport
	t.Cleanup(func() { newTransport = orig })

	var got []time.Duration
	newTransport = func(timeout time.Duration) (HTTPDoer, error) {
		got = append(got, timeout)
		return &mockHTTPClient{}, nil
	}

	_, err := NewClient("k")
	require.NoError(t, err)
	_, err = NewClient("k", WithTimeout(0))
	require.NoError(t, err)
	_, err = NewClient("k", WithTimeout(90*time.Second))
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{60 * time.Second, 0, 90 * time.Second}, got)
}

func TestNewTLSClient_UnboundedTimeout(t *testing.T) {
	doer, err := newTLSClient(0)

	require.NoError(t, err)
	assert.NotNil(t, doer)
}

func TestComplete_Success(t *testing.T) {
	doer := &mockHTTPClient{doFunc: respond(200,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello back"}]},"finishReason":"STOP"}]}`)}
	client := newTestClient(t, doer)

	reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hello")})

	require.NoError(t, err)
	assert.Equal(t, "Hello back", reply)
}

func TestComplete_RequestShape(t *testing.T) {
	doer := &mockHTTPClient{doFunc: respond(200, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)}
	client := newTestClient(t, doer)

	turns := []models.Turn{models.UserTurn("first"), models.UserTurn("second")}
	_, err := client.Complete(context.Background(), turns)
	require.NoError(t, err)

	require.NotNil(t, doer.lastReq)
	assert.Equal(t, http.MethodPost, doer.lastReq.Method)
	assert.Equal(t, "application/json", doer.lastReq.Header.Get("Content-Type"))
	assert.Equal(t, "test-key", doer.lastReq.Header.Get(models.APIKeyHeader))
	assert.NotContains(t, doer.lastReq.URL.String(), "test-key", "key must not travel in the URL")

	var sent models.GenerateRequest
	require.NoError(t, json.Unmarshal(doer.body, &sent))
	require.Len(t, sent.Contents, 2)
	assert.Equal(t, "user", sent.Contents[0].Role)
	assert.Equal(t, "first", sent.Contents[0].Parts[0].Text)
	assert.Equal(t, "second", sent.Contents[1].Parts[0].Text)
}

func TestComplete_FallbackOnMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"empty candidates", `{"candidates":[]}`},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{"no parts", `{"candidates":[{"content":{"role":"model"}}]}`},
		{"empty parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"no text", `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
		{"empty object", `{}`},
		{"null candidate", `{"candidates":[null]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &mockHTTPClient{doFunc: respond(200, tt.body)})

			reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

			require.NoError(t, err)
			assert.Equal(t, "Sorry, I couldn't understand that.", reply)
		})
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain text", `not json at all`},
		{"truncated json", `{"candidates":[{"content":{"parts":[{"text":"Hel`},
		{"empty body", ``},
		{"html error page", `<html><body>Bad Gateway</body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &mockHTTPClient{doFunc: respond(200, tt.body)})

			reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

			require.Error(t, err)
			assert.Empty(t, reply)
			assert.True(t, apierrors.IsNetworkError(err))
			assert.ErrorIs(t, err, errMalformedBody)
			assert.Zero(t, apierrors.GetHTTPStatus(err))
			assert.Equal(t, models.TransportApology, apierrors.UserMessage(err))
		})
	}
}

func TestComplete_UpstreamFailure(t *testing.T) {
	for _, status := range []int{400, 403, 429, 500, 503} {
		client := newTestClient(t, &mockHTTPClient{doFunc: respond(status, `{"error":{"message":"nope"}}`)})

		_, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

		require.Error(t, err)
		assert.Equal(t, status, apierrors.GetHTTPStatus(err))
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Body, "nope")
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	doer := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: no such host")
	}}
	client := newTestClient(t, doer)

	_, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

	require.Error(t, err)
	assert.True(t, apierrors.IsNetworkError(err))
	assert.Zero(t, apierrors.GetHTTPStatus(err))
}

func TestComplete_Timeout(t *testing.T) {
	doer := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	client := newTestClient(t, doer, WithTimeout(20*time.Millisecond))

	_, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

	require.Error(t, err)
	assert.True(t, apierrors.IsTimeoutError(err))
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIKey = "k"

	completer, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Client{}, completer)
}

func TestNew_MissingKey(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, apierrors.ErrMissingAPIKey)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIKey = "k"
	cfg.Backend = "carrier-pigeon"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
