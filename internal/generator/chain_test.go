package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Evans-Junior/chat-bot/internal/domain"
	"github.com/Evans-Junior/chat-bot/internal/summit"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModelClient struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []Request
}

func (f *fakeModelClient) GenerateText(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.Model]; err != nil {
		return "", err
	}
	return f.replies[req.Model], nil
}

func (f *fakeModelClient) models() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Model
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChain(client ModelClient) *Chain {
	return NewChain(client, DefaultChainConfig("CTX"), quietLogger())
}

func TestGenerateUsesPrimaryWithHistory(t *testing.T) {
	client := &fakeModelClient{replies: map[string]string{"gemini-2.5-flash": "🌍 hello"}}
	chain := testChain(client)

	history := []domain.Turn{
		{Role: domain.RoleUser, Text: "earlier"},
		{Role: domain.RoleModel, Text: "reply"},
	}
	res, err := chain.Generate(context.Background(), "now", history)
	require.NoError(t, err)
	require.Equal(t, "🌍 hello", res.Text)
	require.Equal(t, "gemini-2.5-flash", res.Model)
	require.False(t, res.IsFallback)

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	require.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Text: "CTX"},
		{Role: domain.RoleModel, Text: primingReply},
		{Role: domain.RoleUser, Text: "earlier"},
		{Role: domain.RoleModel, Text: "reply"},
		{Role: domain.RoleUser, Text: "now"},
	}, call.Contents)
	require.EqualValues(t, 1000, call.MaxOutputTokens)
	require.InDelta(t, 0.95, call.TopP, 1e-6)
	require.InDelta(t, 40, call.TopK, 1e-6)
}

func TestGenerateReturnsErrorForNonNotFoundFailure(t *testing.T) {
	client := &fakeModelClient{errs: map[string]error{"gemini-2.5-flash": errors.New("quota exceeded")}}
	chain := testChain(client)

	_, err := chain.Generate(context.Background(), "hi", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
	require.Equal(t, []string{"gemini-2.5-flash"}, client.models())
}

func TestGenerateFallsBackOnModelNotFound(t *testing.T) {
	client := &fakeModelClient{
		errs: map[string]error{
			"gemini-2.5-flash": fmt.Errorf("gemini: %w", genai.APIError{Code: 404, Message: "model missing"}),
			"gemini-1.5-flash": errors.New("unavailable"),
		},
		replies: map[string]string{"gemini-1.0-pro": "from pro"},
	}
	chain := testChain(client)

	res, err := chain.Generate(context.Background(), "hi", []domain.Turn{{Role: domain.RoleUser, Text: "ignored"}})
	require.NoError(t, err)
	require.Equal(t, "from pro", res.Text)
	require.Equal(t, "gemini-1.0-pro", res.Model)
	require.True(t, res.IsFallback)
	require.Equal(t, []string{"gemini-2.5-flash", "gemini-1.5-flash", "gemini-1.0-pro"}, client.models())

	fallbackCall := client.calls[2]
	require.Len(t, fallbackCall.Contents, 1)
	require.Equal(t, "CTX\n\nUser: hi", fallbackCall.Contents[0].Text)
	require.EqualValues(t, 500, fallbackCall.MaxOutputTokens)
}

func TestGenerateUsesStaticResponseWhenAllModelsFail(t *testing.T) {
	notFound := errors.New("models/gemini-2.5-flash is not found for API version v1beta")
	client := &fakeModelClient{errs: map[string]error{
		"gemini-2.5-flash": notFound,
		"gemini-1.5-flash": notFound,
		"gemini-1.0-pro":   notFound,
	}}
	chain := testChain(client)

	res, err := chain.Generate(context.Background(), "How can I join?", nil)
	require.NoError(t, err)
	require.Equal(t, StaticModel, res.Model)
	require.True(t, strings.HasPrefix(res.Text, "🤝"))
}

func TestIsModelNotFound(t *testing.T) {
	require.False(t, IsModelNotFound(nil))
	require.True(t, IsModelNotFound(genai.APIError{Code: 404}))
	require.True(t, IsModelNotFound(&genai.APIError{Code: 404}))
	require.True(t, IsModelNotFound(errors.New("Model Not Found")))
	require.False(t, IsModelNotFound(genai.APIError{Code: 500, Message: "internal"}))
}

func TestStaticResponseKeywords(t *testing.T) {
	cases := []struct {
		msg    string
		prefix string
	}{
		{"What is the PanAfrican AI Summit?", "🌍"},
		{"what's the mission", "🎯"},
		{"Can students ATTEND?", "🤝"},
		{"Tell me the pillars", "🔬"},
		{"website please", "📧"},
		{"random question", "🤖"},
	}
	for _, tc := range cases {
		got := StaticResponse(tc.msg)
		require.Truef(t, strings.HasPrefix(got, tc.prefix), "%q -> %q", tc.msg, got)
	}
}

func TestCheckUsesPrimaryModel(t *testing.T) {
	client := &fakeModelClient{replies: map[string]string{"gemini-2.5-flash": "Hello!"}}
	chain := testChain(client)

	text, err := chain.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Hello!", text)
	require.EqualValues(t, 50, client.calls[0].MaxOutputTokens)
}

func TestBuildContextEmbedsSummitData(t *testing.T) {
	data, err := summit.Load()
	require.NoError(t, err)

	ctx := BuildContext(data)
	require.Contains(t, ctx, `"PanAI Sage"`)
	require.Contains(t, ctx, "SUMMIT DATA:")
	require.Contains(t, ctx, "AI for Social Good")
}
