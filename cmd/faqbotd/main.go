package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/cli"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "faqbotd",
		Short: "Corporate FAQ assistant daemon and CLI",
		Long:  "FAQ assistant daemon for running the API server, reindexing the knowledge base and asking one-off questions",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.AskCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
