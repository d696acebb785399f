package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clusterform/internal/domain"
	"clusterform/internal/usecase"
)

var (
	batchInput   string
	batchOutput  string
	batchJSON    bool
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify every row of a CSV file",
	Long: `Classify each row of a CSV file whose header names the model's features.
Rows that fail to encode are reported with their line number; the run
continues with the remaining rows. Batch runs are not recorded in history.

Examples:
  clusterform batch --input customers.csv
  clusterform batch --input customers.csv --output clusters.csv
  clusterform batch --input customers.csv --json > clusters.json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "CSV file to classify (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write results to a file instead of stdout")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "write results as JSON instead of CSV")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "number of workers (default from config)")
	batchCmd.MarkFlagRequired("input")
}

type batchRecord struct {
	Line     int                     `json:"line"`
	Cluster  domain.ClusterID        `json:"cluster,omitempty"`
	Label    string                  `json:"label,omitempty"`
	Distance *float64                `json:"distance,omitempty"`
	Ranking  []domain.RankedCentroid `json:"ranking,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	m, err := loadModel(cmd.Context())
	if err != nil {
		return err
	}

	in, err := os.Open(batchInput)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	rows, err := usecase.ReadRows(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", batchInput, err)
	}

	workers := cfg.Batch.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	uc := usecase.NewBatchUseCase(usecase.NewClassifyUseCase(newPlanCache(), nil, logger), workers)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	startTime := time.Now()

	progressCallback := func(processed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Classifying[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}

		bar.Set(processed)

		elapsed := time.Since(startTime)
		rate := float64(processed) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-processed)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Classifying[reset] ETA: %s", formatDuration(eta)))
		}
	}

	results, err := uc.Run(cmd.Context(), m, rows, progressCallback)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	var out io.Writer = os.Stdout
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	records := make([]batchRecord, len(results))
	for i, r := range results {
		records[i] = toBatchRecord(m, r)
	}
	if batchJSON {
		err = writeBatchJSON(out, records)
	} else {
		err = writeBatchCSV(out, records)
	}
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	printBatchSummary(usecase.Summarize(results), results)
	return nil
}

func toBatchRecord(m *domain.Model, r usecase.BatchResult) batchRecord {
	rec := batchRecord{Line: r.Line}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec
	}
	best := r.Outcome.Result.Best
	rec.Cluster = best.ClusterID
	rec.Distance = &best.Distance
	rec.Ranking = r.Outcome.Result.Ranking
	if p, ok := m.Profile(best.ClusterID); ok {
		rec.Label = p.Label
	}
	return rec
}

func writeBatchJSON(w io.Writer, records []batchRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeBatchCSV(w io.Writer, records []batchRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"line", "cluster", "label", "distance", "error"}); err != nil {
		return err
	}
	for _, r := range records {
		distance := ""
		if r.Distance != nil {
			distance = strconv.FormatFloat(*r.Distance, 'f', 6, 64)
		}
		row := []string{strconv.Itoa(r.Line), r.Cluster.String(), r.Label, distance, r.Error}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func printBatchSummary(s usecase.BatchSummary, results []usecase.BatchResult) {
	fmt.Fprintf(os.Stderr, "\nBatch complete:\n")
	fmt.Fprintf(os.Stderr, "  Rows:       %d\n", s.Rows)
	fmt.Fprintf(os.Stderr, "  Classified: %d\n", s.Succeeded)
	fmt.Fprintf(os.Stderr, "  Failed:     %d\n", s.Failed)

	ids := make([]string, 0, len(s.PerBest))
	for id := range s.PerBest {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(os.Stderr, "  Cluster %-4s %d\n", id, s.PerBest[domain.ClusterID(id)])
	}

	if s.Failed > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings:\n")
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "  - line %d: %v\n", r.Line, r.Err)
			}
		}
	}
}
