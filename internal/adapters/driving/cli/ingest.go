package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/coursetta-labs/coursetta/internal/adapters/driven/watch"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <batch.json | directory>",
	Short: "Build the knowledge base from a document batch",
	Long: `Chunks, embeds and stores a batch of documents, then rebuilds the
vector index. A batch file is a JSON array of documents with source_id,
origin ("course_page" or "forum_post"), title, url, text and optional
author and published_at fields. Re-ingesting a source_id replaces its
previous content.

With --watch the argument is a directory: existing batch files are
ingested first, then new or rewritten *.json files trigger re-ingestion
while queries keep serving from the previous snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch a directory for batch files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	if ingestWatch {
		return watchAndIngest(cmd, args[0])
	}
	return ingestFile(cmd.Context(), cmd, args[0])
}

func ingestFile(ctx context.Context, cmd *cobra.Command, path string) error {
	docs, err := readBatch(path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Printf("%s: empty batch, nothing to do\n", path)
		return nil
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ingestService.SetProgress(func(done, total int) {
		_ = bar.Set(done)
	})
	defer ingestService.SetProgress(nil)

	stats, err := ingestService.Ingest(ctx, docs)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	cmd.Printf("Ingested %d documents: %d chunks stored, %d skipped\n",
		stats.Documents, stats.Chunks, stats.Skipped)
	return nil
}

// watchAndIngest ingests every batch file already in dir, then keeps
// re-ingesting as files are dropped or rewritten until interrupted.
func watchAndIngest(cmd *cobra.Command, dir string) error {
	ctx := cmd.Context()

	existing, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(existing)
	for _, path := range existing {
		if err := ingestFile(ctx, cmd, path); err != nil {
			logger.Error("ingest %s: %v", path, err)
		}
	}

	watcher, err := watch.New()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	paths, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for batch files (Ctrl-C to stop)\n", dir)
	for path := range paths {
		if err := ingestFile(ctx, cmd, path); err != nil {
			// Keep watching: a bad batch should not end the session.
			logger.Error("ingest %s: %v", path, err)
		}
	}
	return nil
}
