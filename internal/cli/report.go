package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportDays int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a plain-text activity summary",
	Long: `Print a summary of the activity log: time spent per topic and overall
record counts. Use --days to limit the report to a recent window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Metrics == nil {
			return fmt.Errorf("activity store not initialized")
		}

		records, err := Store.LoadAll()
		if err != nil {
			return fmt.Errorf("loading activity log: %w", err)
		}

		if reportDays > 0 {
			since := time.Now().AddDate(0, 0, -reportDays)
			filtered := records[:0]
			for _, r := range records {
				if !r.Timestamp.Before(since) {
					filtered = append(filtered, r)
				}
			}
			records = filtered
			fmt.Printf("Activity report (last %d day(s)):\n\n", reportDays)
		} else {
			fmt.Printf("Activity report (all records):\n\n")
		}

		stats := Metrics.Stats(records)
		if stats.TotalRecords == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		fmt.Println("Time by topic:")
		for _, t := range Metrics.TopicSummaries(records) {
			fmt.Printf("  %-30s %7.1f min  (%d records)\n", t.Topic, t.Minutes, t.Count)
		}

		fmt.Printf("\nRecords:  %d total, %d failures, %d distinct topics\n",
			stats.TotalRecords, stats.FailureRecords, stats.DistinctTopics)
		if !stats.FirstRecord.IsZero() {
			fmt.Printf("Range:    %s to %s\n",
				stats.FirstRecord.Format("2006-01-02 15:04"),
				stats.LastRecord.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "Only include records from the last N days")
	rootCmd.AddCommand(reportCmd)
}
