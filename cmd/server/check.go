package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/config"
	"github.com/Evans-Junior/chat-bot/internal/generator"
	"github.com/spf13/cobra"
)

const checkTimeout = 30 * time.Second

// newCheckCmd verifies that the API key and primary model work.
func newCheckCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the connection to the configured Gemini model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			client, err := generator.NewGeminiClient(ctx, cfg.Gemini.APIKey)
			if err != nil {
				return err
			}
			chain := generator.NewChain(client, generator.ChainConfig{
				PrimaryModel:   cfg.Gemini.Model,
				FallbackModels: cfg.Gemini.FallbackModels,
			}, logger)

			reply, err := chain.Check(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API connection successful (model %s): %s\n", chain.Model(), reply)
			return nil
		},
	}
}
