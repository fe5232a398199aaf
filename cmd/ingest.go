package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestClear bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Index a folder of course scripts",
	Long: `Ingest parses every .txt course script in the folder, chunks the
lesson content and indexes it for semantic search. Courses that are already
indexed are skipped, so re-running ingest is safe.

Without an argument the configured docs folder is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "drop all indexed data and re-ingest from scratch")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	system, cfg, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	dir := cfg.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}

	courses, chunks, err := system.AddCourseFolder(ctx, dir, ingestClear)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	total, _ := system.Analytics()
	fmt.Printf("Ingested %d courses (%d chunks) from %s\n", courses, chunks, dir)
	fmt.Printf("Catalog now holds %d courses\n", total)
	return nil
}
