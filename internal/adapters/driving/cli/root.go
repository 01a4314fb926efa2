// Package cli implements the coursetta command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursetta-labs/coursetta/internal/adapters/driven/config/file"
	"github.com/coursetta-labs/coursetta/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/coursetta-labs/coursetta/internal/adapters/driven/llm/openai"
	"github.com/coursetta-labs/coursetta/internal/adapters/driven/storage/sqlite"
	"github.com/coursetta-labs/coursetta/internal/adapters/driven/vector"
	"github.com/coursetta-labs/coursetta/internal/chunker"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driving"
	"github.com/coursetta-labs/coursetta/internal/core/services"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

var verbose bool

// Services wired by initServices and shared by the commands.
var (
	configStore   driven.ConfigStore
	answerService driving.AnswerService
	ingestService driving.IngestService
	closers       []func() error
)

var rootCmd = &cobra.Command{
	Use:   "coursetta",
	Short: "Virtual teaching assistant for course Q&A",
	Long: `Coursetta answers natural-language questions about a course from a
knowledge base of course pages and forum posts.

Build the knowledge base with "coursetta ingest", then ask questions with
"coursetta ask", serve the HTTP API with "coursetta serve", or expose the
MCP tools with "coursetta mcp serve".`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command. Called by main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeAll()
	if err != nil {
		os.Exit(1)
	}
}

// initServices wires the driven adapters and core services. Commands
// that talk to backends call it from their RunE.
func initServices() error {
	if answerService != nil {
		return nil
	}

	cfg, err := file.NewConfigStore(os.Getenv("COURSETTA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore = cfg

	apiKey := cfg.GetString("openai.api_key")
	if apiKey == "" {
		return fmt.Errorf("no API key configured: set openai.api_key in %s or COURSETTA_OPENAI_API_KEY", cfg.Path())
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("open knowledge base: %w", err)
	}
	closers = append(closers, store.Close)

	index := vector.NewIndex(store)
	if err := index.Reload(context.Background()); err != nil {
		// Queries still work, they just retrieve nothing until the
		// next successful ingest.
		logger.Warn("Load index snapshot: %v", err)
	}
	logger.Debug("Index snapshot: %d vectors (%s)", index.Len(), index.ModelVersion())

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:     apiKey,
		BaseURL:    cfg.GetString("openai.base_url"),
		Model:      cfg.GetString("openai.embedding_model"),
		ImageModel: cfg.GetString("openai.image_model"),
		RateLimit:  cfg.GetFloat("openai.rate_limit"),
	})
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	closers = append(closers, embedder.Close)

	llm, err := llmopenai.NewLLMService(llmopenai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("openai.base_url"),
		Model:   cfg.GetString("openai.llm_model"),
	})
	if err != nil {
		return fmt.Errorf("llm service: %w", err)
	}
	closers = append(closers, llm.Close)

	prompts, err := file.NewPromptStore(cfg.GetString("prompts.dir"))
	if err != nil {
		return fmt.Errorf("prompt store: %w", err)
	}

	var answerOpts []services.Option
	if k := cfg.GetInt("retrieval.top_k"); k > 0 {
		answerOpts = append(answerOpts, services.WithTopK(k))
	}
	if floor := cfg.GetFloat("retrieval.min_score"); floor > 0 {
		answerOpts = append(answerOpts, services.WithMinScore(floor))
	}
	if secs := cfg.GetInt("ask.timeout_seconds"); secs > 0 {
		answerOpts = append(answerOpts, services.WithTimeout(time.Duration(secs)*time.Second))
	}

	answerService = services.NewAnswerService(embedder, llm, index, store, prompts, answerOpts...)

	ck := newChunker(cfg)
	var ingestOpts []services.IngestOption
	if n := cfg.GetInt("ingest.workers"); n > 0 {
		ingestOpts = append(ingestOpts, services.WithEmbedWorkers(n))
	}
	ingestService = services.NewIngestService(ck, embedder, store, index, ingestOpts...)

	return nil
}

// newChunker builds the ingest chunker from the chunking.* config keys,
// falling back to the package defaults for unset keys.
func newChunker(cfg driven.ConfigStore) *chunker.Chunker {
	var opts []chunker.Option
	if size := cfg.GetInt("chunking.target_size"); size > 0 {
		opts = append(opts, chunker.WithTargetSize(size))
	}
	if size := cfg.GetInt("chunking.max_size"); size > 0 {
		opts = append(opts, chunker.WithMaxSize(size))
	}
	if f := cfg.GetFloat("chunking.overlap"); f > 0 {
		opts = append(opts, chunker.WithOverlapFraction(f))
	}
	return chunker.New(opts...)
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	closers = nil
}
