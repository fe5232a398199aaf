// Package cmd implements the coursechat CLI. Each command lives in its own
// file and registers itself on the root command; main.go stays a minimal
// entry point.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/koopa0/coursechat/internal/config"
	"github.com/koopa0/coursechat/internal/course"
	"github.com/koopa0/coursechat/internal/generator"
	"github.com/koopa0/coursechat/internal/log"
	"github.com/koopa0/coursechat/internal/rag"
	"github.com/koopa0/coursechat/internal/session"
	"github.com/koopa0/coursechat/internal/vectorstore"
)

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "Coursechat - chat with your course materials",
	Long: `Coursechat answers questions about course materials using semantic
search over ingested course scripts.

Run "coursechat ingest" to index a folder of course documents, then
"coursechat chat" for an interactive session or "coursechat ask" for a
single question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

// bootstrap wires the full system from configuration: logger, Gemini
// client, vector store, generator, sessions and the RAG facade. Course
// documents under the configured docs folder are (re-)ingested at startup;
// already-indexed courses are skipped.
func bootstrap(ctx context.Context) (*rag.System, *config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Coursechat requires a Gemini API key to function.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return nil, nil, nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	store, err := vectorstore.New(vectorstore.Config{
		Path:                cfg.DBPath,
		Embedding:           vectorstore.NewGeminiEmbedding(client, cfg.EmbedderModel),
		ResolutionThreshold: cfg.ResolutionThreshold,
		MaxResults:          cfg.MaxResults,
		Logger:              logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	geminiClient, err := generator.NewGeminiClient(client, cfg.ModelName)
	if err != nil {
		return nil, nil, nil, err
	}

	gen, err := generator.New(generator.Config{
		Client:    geminiClient,
		Logger:    logger,
		MaxRounds: cfg.MaxRounds,
		MaxTokens: int32(cfg.MaxTokens),
		Limiter:   rate.NewLimiter(rate.Limit(2), 1),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating generator: %w", err)
	}

	splitter, err := course.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunk)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating splitter: %w", err)
	}

	system, err := rag.New(rag.Config{
		Store:     store,
		Generator: gen,
		Sessions:  session.NewStore(cfg.MaxHistory, logger),
		Splitter:  splitter,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating system: %w", err)
	}

	if info, statErr := os.Stat(cfg.DocsDir); statErr == nil && info.IsDir() {
		courses, chunks, err := system.AddCourseFolder(ctx, cfg.DocsDir, false)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ingesting %s: %w", cfg.DocsDir, err)
		}
		if courses > 0 {
			logger.Info("startup ingestion complete", "courses", courses, "chunks", chunks)
		}
	}

	return system, cfg, logger, nil
}
