package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"clusterform/internal/domain"
	"clusterform/internal/port"
	"clusterform/internal/usecase"
)

var (
	classifySet     []string
	classifyValues  string
	classifyRestore bool
	classifyDemo    bool
	classifyJSON    bool
	classifyNoSave  bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one record",
	Long: `Encode one record of field values and rank the model's clusters by distance.

Values are merged in this order, later sources winning:
  --demo, --restore, --values file, --set flags.

Examples:
  clusterform classify --set age=40 --set owns_home=yes
  clusterform classify --values customer.json --json
  clusterform classify --restore --set income=52000`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringArrayVarP(&classifySet, "set", "s", nil, "field value as name=value (repeatable)")
	classifyCmd.Flags().StringVar(&classifyValues, "values", "", "JSON file with an object of field values")
	classifyCmd.Flags().BoolVar(&classifyRestore, "restore", false, "start from the last saved values")
	classifyCmd.Flags().BoolVar(&classifyDemo, "demo", false, "start from demo values")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
	classifyCmd.Flags().BoolVar(&classifyNoSave, "no-save", false, "do not save values or history")
}

func runClassify(cmd *cobra.Command, args []string) error {
	m, err := loadModel(cmd.Context())
	if err != nil {
		return err
	}

	var st port.ValueStore
	if !classifyNoSave || classifyRestore {
		bolt, err := openState(m)
		if err != nil {
			return err
		}
		if bolt != nil {
			defer bolt.Close()
			st = bolt
		}
	}

	uc := usecase.NewClassifyUseCase(newPlanCache(), st, logger)
	if classifyNoSave {
		uc = uc.WithoutRecording()
	}
	if err := uc.Check(m); err != nil {
		return fmt.Errorf("model is not usable: %w", err)
	}

	raw := domain.RawValues{}
	if classifyDemo {
		merge(raw, usecase.DemoValues(m))
	}
	if classifyRestore {
		saved, err := uc.Restore(m)
		if err != nil {
			return err
		}
		merge(raw, saved)
	}
	if classifyValues != "" {
		fromFile, err := readValuesFile(classifyValues)
		if err != nil {
			return err
		}
		merge(raw, fromFile)
	}
	fromFlags, err := parseAssignments(classifySet)
	if err != nil {
		return err
	}
	merge(raw, fromFlags)

	outcome, err := uc.Classify(m, raw)
	if err != nil {
		var fieldErr *domain.FieldError
		if errors.As(err, &fieldErr) {
			printFieldErrors(uc.Validate(m, raw))
			return fmt.Errorf("invalid input")
		}
		return fmt.Errorf("classification failed: %w", err)
	}

	if classifyJSON {
		output, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printOutcome(m, outcome)
	return nil
}

func merge(dst, src domain.RawValues) {
	for k, v := range src {
		dst[k] = v
	}
}

func parseAssignments(pairs []string) (domain.RawValues, error) {
	values := make(domain.RawValues, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", p)
		}
		values[name] = value
	}
	return values, nil
}

// readValuesFile reads a JSON object of field values.
func readValuesFile(path string) (domain.RawValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	var values domain.RawValues
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse values: %w", err)
	}
	if values == nil {
		values = domain.RawValues{}
	}
	return values, nil
}

func printFieldErrors(err error) {
	if err == nil {
		return
	}
	color.Error.Println("Input has problems:")
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Printf("  - %s\n", line)
	}
}

func printOutcome(m *domain.Model, outcome *usecase.Outcome) {
	best := outcome.Result.Best
	title := best.ClusterID.String()
	if outcome.Profile != nil && outcome.Profile.Label != "" {
		title = fmt.Sprintf("%s (%s)", outcome.Profile.Label, best.ClusterID)
	}
	color.Success.Printf("Best cluster: %s", title)
	fmt.Printf("  distance %.4f\n", best.Distance)

	if p := outcome.Profile; p != nil {
		if p.Title != "" {
			color.Bold.Println(p.Title)
		}
		if p.Summary != "" {
			fmt.Println(p.Summary)
		}
		for _, b := range p.Bullets {
			fmt.Printf("  • %s\n", b)
		}
		if p.Note != "" {
			color.Comment.Println(p.Note)
		}
	}
	fmt.Println()

	table := newTable([]string{"Rank", "Cluster", "Label", "Distance"})
	for i, r := range outcome.Result.Ranking {
		label := ""
		if p, ok := m.Profile(r.ClusterID); ok {
			label = p.Label
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.ClusterID.String(),
			label,
			strconv.FormatFloat(r.Distance, 'f', 4, 64),
		})
	}
	table.Render()
}
