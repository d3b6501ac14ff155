package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <topic>",
	Short: "Normalize a free-text topic label",
	Long: `Ask the configured text model to map a free-text topic label onto a
canonical topic name. Repeated lookups for the same input are served from
an in-process cache; on any model failure the input is echoed back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Normalizer == nil {
			return fmt.Errorf("topic normalizer not available (no LLM credentials configured)")
		}
		fmt.Println(Normalizer.Normalize(cmd.Context(), args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
