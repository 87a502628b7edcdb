package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/diogo/chatwidget/internal/config"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/logging"
	"github.com/diogo/chatwidget/internal/models"
)

type stubModelsClient struct {
	resp *genai.GenerateContentResponse
	err  error

	gotModel    string
	gotContents []*genai.Content
}

func (s *stubModelsClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.gotModel = model
	s.gotContents = contents
	return s.resp, s.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func newStubSDKClient(stub *stubModelsClient) *SDKClient {
	return &SDKClient{
		models: stub,
		model:  models.Model25Flash,
		logger: logging.Discard(),
	}
}

func TestNewSDKClient_RequiresAPIKey(t *testing.T) {
	_, err := NewSDKClient(context.Background(), "")
	assert.ErrorIs(t, err, apierrors.ErrMissingAPIKey)
}

func TestNewSDKClient_ForwardsConfig(t *testing.T) {
	orig := newGenAIClient
	t.Cleanup(func() { newGenAIClient = orig })

	var got *genai.ClientConfig
	newGenAIClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		got = cfg
		return &genai.Client{}, nil
	}

	client, err := NewSDKClient(context.Background(), "sdk-key", WithSDKModel(models.Model25Pro), WithSDKTimeout(5*time.Second))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "sdk-key", got.APIKey)
	assert.Equal(t, genai.BackendGeminiAPI, got.Backend)
	assert.Equal(t, models.Model25Pro, client.model)
	assert.Equal(t, 5*time.Second, client.timeout)
}

func TestNew_SDKBackend(t *testing.T) {
	orig := newGenAIClient
	t.Cleanup(func() { newGenAIClient = orig })
	newGenAIClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		return &genai.Client{}, nil
	}

	cfg := config.DefaultConfig()
	cfg.APIKey = "k"
	cfg.Backend = "sdk"

	completer, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &SDKClient{}, completer)
}

func TestSDKComplete_Success(t *testing.T) {
	stub := &stubModelsClient{resp: textResponse("from sdk")}
	client := newStubSDKClient(stub)

	reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("a"), models.UserTurn("b")})

	require.NoError(t, err)
	assert.Equal(t, "from sdk", reply)
	assert.Equal(t, models.Model25Flash, stub.gotModel)
	require.Len(t, stub.gotContents, 2)
	assert.Equal(t, genai.RoleUser, stub.gotContents[0].Role)
	assert.Equal(t, "b", stub.gotContents[1].Parts[0].Text)
}

func TestSDKComplete_Fallback(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}},
		{"empty text", textResponse("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newStubSDKClient(&stubModelsClient{resp: tt.resp})

			reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

			require.NoError(t, err)
			assert.Equal(t, models.FallbackReply, reply)
		})
	}
}

func TestSDKComplete_UpstreamFailure(t *testing.T) {
	client := newStubSDKClient(&stubModelsClient{err: genai.APIError{Code: 500, Message: "internal"}})

	_, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

	require.Error(t, err)
	assert.Equal(t, 500, apierrors.GetHTTPStatus(err))
}

func TestSDKComplete_TransportFailure(t *testing.T) {
	client := newStubSDKClient(&stubModelsClient{err: errors.New("connection reset")})

	_, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

	require.Error(t, err)
	assert.True(t, apierrors.IsNetworkError(err))
}

func TestSDKComplete_DecodeFailure(t *testing.T) {
	decodeErr := fmt.Errorf("unmarshal response: %w", errors.New("unexpected end of JSON input"))
	client := newStubSDKClient(&stubModelsClient{err: decodeErr})

	reply, err := client.Complete(context.Background(), []models.Turn{models.UserTurn("hi")})

	require.Error(t, err)
	assert.Empty(t, reply)
	assert.True(t, apierrors.IsNetworkError(err))
	assert.Zero(t, apierrors.GetHTTPStatus(err))
	assert.Equal(t, models.TransportApology, apierrors.UserMessage(err))
}
