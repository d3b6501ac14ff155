package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ASH1998/AI-Task-Tracker/internal/core"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the continuous tracking loop",
	Long: `Run the tracking loop: capture the screen every interval, classify
the screenshot with the configured vision model, and append the result to
the activity log.

The loop runs until interrupted (Ctrl+C). Individual iteration failures
are logged and never stop the loop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTracker(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Tracking every %s. Activity log: %s\n", Cfg.Tracker.TrackingInterval, Store.Path())
		fmt.Println("Press Ctrl+C to stop.")

		return Tracker.Run(ctx)
	},
}

// requireTracker explains why tracking is unavailable instead of a bare
// nil-service error: the usual cause is missing LLM credentials.
func requireTracker() error {
	if Tracker != nil {
		return core.ValidateConfig(Cfg)
	}
	return fmt.Errorf("tracking unavailable: no LLM credentials configured (set OPENAI_API_KEY, or USE_AZURE=true with the AZURE_OPENAI_* variables)")
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single tracking iteration and exit",
	Long: `Capture the screen once, classify it, and append the result to the
activity log. Useful for verifying the capture and LLM configuration
before starting the continuous loop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTracker(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		before, err := Store.LoadAll()
		if err != nil {
			return fmt.Errorf("loading activity log: %w", err)
		}

		Tracker.RunIteration(ctx)

		records, err := Store.LoadAll()
		if err != nil {
			return fmt.Errorf("loading activity log: %w", err)
		}
		if len(records) <= len(before) {
			fmt.Println("Iteration completed; no record written (capture failed).")
			return nil
		}
		last := records[len(records)-1]
		fmt.Println("Iteration completed:")
		fmt.Printf("  App:         %s\n", last.AppName)
		fmt.Printf("  Activity:    %s\n", last.CrispDescription)
		fmt.Printf("  Topic:       %s\n", last.MainTopic)
		fmt.Printf("  Description: %s\n", last.ShortDescription)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(onceCmd)
}
