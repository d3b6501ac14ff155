package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	trackermcp "github.com/ASH1998/AI-Task-Tracker/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the task tracker MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the task tracker MCP server on stdio transport.

The server exposes the activity log as MCP tools that AI assistants can
call: get_recent_activity, get_topic_summary, get_activity_stats, and
normalize_topic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("activity store not initialized")
		}

		srv := trackermcp.NewServer(Store, Metrics, Normalizer, EventLog, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
