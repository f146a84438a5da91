package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/config"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Reindex stale documents",
		Long:  "Re-chunk and re-embed every document whose index is missing or older than the configured schedule",
		RunE:  runIndex,
	}

	cmd.Flags().Bool("all", false, "Reindex every document regardless of age")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deps, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	cutoff := time.Now().Add(-time.Duration(cfg.IndexScheduleHours) * time.Hour)
	if all, _ := cmd.Flags().GetBool("all"); all {
		cutoff = time.Now()
	}

	docs, err := deps.Knowledge.ListStaleDocuments(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale documents: %w", err)
	}
	if len(docs) == 0 {
		log.Println("index: nothing to do")
		return nil
	}

	failed := 0
	for _, doc := range docs {
		chunks, err := deps.Knowledge.ReindexDocument(ctx, doc)
		if err != nil {
			log.Printf("index: %s failed: %v", doc.Source, err)
			failed++
			continue
		}
		log.Printf("index: %s (%d chunks)", doc.Source, chunks)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to reindex", failed, len(docs))
	}
	log.Printf("index: %d documents reindexed", len(docs))
	return nil
}
