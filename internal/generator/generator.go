// Package generator produces bot replies through a generative-AI backend,
// falling back to alternate models and finally to canned answers.
package generator

import (
	"context"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
)

// StaticModel is the model id reported for canned keyword answers.
const StaticModel = "static-fallback"

// Generator turns a prompt plus conversation history into a reply.
// This interface is implemented by Chain.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []domain.Turn) (*Result, error)
}

// Result is a successful generation.
type Result struct {
	Text       string
	Model      string
	IsFallback bool
	Timestamp  time.Time
}

// Request is a single call to a backing model.
type Request struct {
	Model    string
	Contents []domain.Turn

	Temperature     float32
	MaxOutputTokens int32
	TopP            float32 // 0 leaves the backend default
	TopK            float32 // 0 leaves the backend default
}

// ModelClient calls one backing model. GeminiClient is the production
// implementation.
type ModelClient interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

// Ensure implementations satisfy their interfaces.
var (
	_ Generator   = (*Chain)(nil)
	_ ModelClient = (*GeminiClient)(nil)
)
