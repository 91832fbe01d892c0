package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
)

// ChainConfig holds generation settings for a Chain.
type ChainConfig struct {
	PrimaryModel   string
	FallbackModels []string
	SystemContext  string
}

// DefaultChainConfig returns the production model lineup.
func DefaultChainConfig(systemContext string) ChainConfig {
	return ChainConfig{
		PrimaryModel:   "gemini-2.5-flash",
		FallbackModels: []string{"gemini-1.5-flash", "gemini-1.0-pro"},
		SystemContext:  systemContext,
	}
}

// Chain is the tiered Generator: the primary model with full history, then
// each fallback model with a single-turn prompt, then a canned answer. The
// fallback tiers only run when the primary model is reported as not found;
// any other primary failure is returned to the caller.
type Chain struct {
	client ModelClient
	cfg    ChainConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewChain creates a Chain over client.
func NewChain(client ModelClient, cfg ChainConfig, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Model returns the primary model id.
func (c *Chain) Model() string {
	return c.cfg.PrimaryModel
}

// Generate produces a reply for prompt given the prior history.
func (c *Chain) Generate(ctx context.Context, prompt string, history []domain.Turn) (*Result, error) {
	contents := make([]domain.Turn, 0, len(history)+3)
	contents = append(contents,
		domain.Turn{Role: domain.RoleUser, Text: c.cfg.SystemContext},
		domain.Turn{Role: domain.RoleModel, Text: primingReply},
	)
	contents = append(contents, history...)
	contents = append(contents, domain.Turn{Role: domain.RoleUser, Text: prompt})

	c.logger.Debug("Generating response",
		"model", c.cfg.PrimaryModel,
		"messages", len(contents),
		"prompt_preview", domain.Preview(prompt),
	)

	text, err := c.client.GenerateText(ctx, Request{
		Model:           c.cfg.PrimaryModel,
		Contents:        contents,
		Temperature:     0.7,
		MaxOutputTokens: 1000,
		TopP:            0.95,
		TopK:            40,
	})
	if err == nil {
		return &Result{Text: text, Model: c.cfg.PrimaryModel, Timestamp: c.now()}, nil
	}

	c.logger.Error("Primary model failed", "model", c.cfg.PrimaryModel, "error", err)
	if !IsModelNotFound(err) {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	return c.fallback(ctx, prompt), nil
}

// fallback tries each fallback model in order and settles on a canned answer
// when all of them fail. It always produces a result.
func (c *Chain) fallback(ctx context.Context, prompt string) *Result {
	single := []domain.Turn{{
		Role: domain.RoleUser,
		Text: c.cfg.SystemContext + "\n\nUser: " + prompt,
	}}

	for _, model := range c.cfg.FallbackModels {
		if ctx.Err() != nil {
			break
		}
		c.logger.Info("Trying fallback model", "model", model)
		text, err := c.client.GenerateText(ctx, Request{
			Model:           model,
			Contents:        single,
			Temperature:     0.7,
			MaxOutputTokens: 500,
		})
		if err != nil {
			c.logger.Warn("Fallback model failed", "model", model, "error", err)
			continue
		}
		c.logger.Info("Fallback model succeeded", "model", model)
		return &Result{Text: text, Model: model, IsFallback: true, Timestamp: c.now()}
	}

	c.logger.Warn("All models failed, using static response")
	return &Result{
		Text:       StaticResponse(prompt),
		Model:      StaticModel,
		IsFallback: true,
		Timestamp:  c.now(),
	}
}

// Check performs a tiny generation against the primary model to verify the
// API key and model are usable.
func (c *Chain) Check(ctx context.Context) (string, error) {
	text, err := c.client.GenerateText(ctx, Request{
		Model:           c.cfg.PrimaryModel,
		Contents:        []domain.Turn{{Role: domain.RoleUser, Text: "Say hello"}},
		Temperature:     0.7,
		MaxOutputTokens: 50,
	})
	if err != nil {
		return "", fmt.Errorf("connection test against %s failed: %w", c.cfg.PrimaryModel, err)
	}
	return text, nil
}
