package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clusterform/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and a starter model",
	Long: `Create clusterform.yaml with default settings and, when the configured
model path is a local file that does not exist yet, a small starter model.

Examples:
  clusterform init
  clusterform init --force`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing files")
}

const starterModel = `{
  "version": "1",
  "feature_space": [
    {"name": "age", "label": "Age", "kind": "numeric", "mean": 30, "std": 10, "min": 18, "max": 90},
    {"name": "owns_home", "label": "Owns home", "kind": "nominal", "values": ["yes", "no"]}
  ],
  "centroids": [
    {"cluster": 0, "vector": [1.0, 1.0, 0.0]},
    {"cluster": 1, "vector": [-1.0, 0.0, 1.0]}
  ],
  "clusters": [
    {"cluster": 0, "label": "Settled owners", "summary": "Older customers who own their home."},
    {"cluster": 1, "label": "Young renters", "summary": "Younger customers without a home of their own."}
  ]
}
`

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := filepath.Join(rootDir, "clusterform.yaml")
	if err := writeIfAbsent(cfgPath, func() error { return config.DefaultConfig().Save(cfgPath) }); err != nil {
		return err
	}

	fresh := config.DefaultConfig()
	modelPath := fresh.ModelRef(rootDir)
	if err := os.MkdirAll(filepath.Dir(modelPath), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	return writeIfAbsent(modelPath, func() error {
		return os.WriteFile(modelPath, []byte(starterModel), 0644)
	})
}

func writeIfAbsent(path string, write func() error) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("Exists, skipped: %s\n", path)
		return nil
	}
	if err := write(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
