package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"clusterform/internal/domain"
	"clusterform/internal/usecase"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show a model's feature layout",
	Long: `Compile the model's feature space and print which vector slots each
feature occupies, followed by the model's clusters.

Examples:
  clusterform inspect
  clusterform inspect --model https://example.com/model.json --json`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON")
}

type slotView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Start    int      `json:"start"`
	Length   int      `json:"length"`
	Mean     *float64 `json:"mean,omitempty"`
	Std      *float64 `json:"std,omitempty"`
	Category []string `json:"categories,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	m, err := loadModel(cmd.Context())
	if err != nil {
		return err
	}

	uc := usecase.NewClassifyUseCase(newPlanCache(), nil, logger)
	plan, err := uc.Plan(m)
	if err != nil {
		return fmt.Errorf("feature space does not compile: %w", err)
	}
	summary := uc.Summary(m)

	slots := make([]slotView, 0, plan.Len())
	for _, s := range plan.Slots() {
		slots = append(slots, describeSlot(s))
	}

	if inspectJSON {
		output, _ := json.MarshalIndent(struct {
			Summary domain.ModelSummary `json:"summary"`
			Slots   []slotView          `json:"slots"`
		}{summary, slots}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	color.Bold.Printf("Model %s", m.Source)
	if summary.Version != "" {
		fmt.Printf(" (version %s)", summary.Version)
	}
	fmt.Println()
	fmt.Printf("  Features:   %d\n", summary.Features)
	fmt.Printf("  Dimension:  %d\n", summary.Dimension)
	fmt.Printf("  Centroids:  %d\n\n", summary.Centroids)

	table := newTable([]string{"Feature", "Kind", "Slots", "Encoding"})
	for _, s := range slots {
		table.Append([]string{s.Name, s.Kind, slotRange(s), encodingDetail(s)})
	}
	table.Render()

	if err := uc.Check(m); err != nil {
		fmt.Println()
		color.Warn.Printf("Model cannot classify: %v\n", err)
	}
	return nil
}

func describeSlot(s domain.SlotAssignment) slotView {
	v := slotView{
		Name:   s.Name,
		Kind:   string(s.Encoding.Kind()),
		Start:  s.Start,
		Length: s.Length,
	}
	switch enc := s.Encoding.(type) {
	case domain.Numeric:
		v.Mean, v.Std = &enc.Mean, &enc.Std
	case domain.Ordinal:
		v.Category = enc.Order
	case domain.Nominal:
		v.Category = enc.Values
	}
	return v
}

func slotRange(s slotView) string {
	if s.Length == 1 {
		return strconv.Itoa(s.Start)
	}
	return fmt.Sprintf("%d-%d", s.Start, s.Start+s.Length-1)
}

func encodingDetail(s slotView) string {
	if s.Mean != nil {
		return fmt.Sprintf("z-score mean=%g std=%g", *s.Mean, *s.Std)
	}
	return strings.Join(s.Category, ", ")
}
