package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/config"
)

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a question from the command line",
		Long:  "Run a question through the full retrieval pipeline and print the answer with its confidence",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().String("user", "cli", "User identifier for conversation context")
	cmd.Flags().String("language", "ru", "Answer language (ru or en)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	userID, _ := cmd.Flags().GetString("user")
	language, _ := cmd.Flags().GetString("language")
	question := strings.Join(args, " ")

	answer, confidence := deps.Query.Answer(ctx, userID, question, language)

	fmt.Println(answer)
	fmt.Printf("confidence: %.2f\n", confidence)
	return nil
}
