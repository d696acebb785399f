package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clusterform/internal/domain"
)

var (
	historyLimit int
	historyClear bool
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past classifications",
	Long: `List recorded classifications, newest first.

Examples:
  clusterform history
  clusterform history --limit 5 --json
  clusterform history --clear`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.State.Enabled {
		return fmt.Errorf("state is disabled. Set state.enabled in config")
	}
	if _, err := os.Stat(cfg.StateDBPath(rootDir)); os.IsNotExist(err) {
		fmt.Println("No history yet.")
		return nil
	}

	st, err := openState(nil)
	if err != nil {
		return err
	}
	defer st.Close()

	if historyClear {
		if err := st.ClearHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	}

	entries, err := st.ListHistory(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		output, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	table := newTable([]string{"When", "Model", "Cluster", "Distance", "Values"})
	for _, e := range entries {
		table.Append([]string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.ModelVersion,
			e.Best.ClusterID.String(),
			strconv.FormatFloat(e.Best.Distance, 'f', 4, 64),
			formatValues(e.Values),
		})
	}
	table.Render()
	return nil
}

func formatValues(values domain.RawValues) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + values[k]
	}
	return strings.Join(parts, " ")
}
