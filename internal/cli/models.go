package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"clusterform/internal/adapter/fs"
	"clusterform/internal/adapter/model"
	"clusterform/internal/port"
	"clusterform/internal/usecase"
)

var modelsCmd = &cobra.Command{
	Use:   "models [path]",
	Short: "List model files under a directory",
	Long: `Find model definition files using the configured include and exclude
patterns and report which of them load and classify cleanly.

Examples:
  clusterform models
  clusterform models ./exports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	var finder port.ModelFinder = fs.NewWalker(cfg.Model.Includes, cfg.Model.Excludes)
	files, err := finder.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}

	uc := usecase.NewClassifyUseCase(newPlanCache(), nil, logger)

	table := newTable([]string{"File", "Version", "Features", "Dim", "Centroids", "Modified", "Status"})
	listed, usable := 0, 0
	for _, f := range files {
		rel, err := filepath.Rel(path, f.Path)
		if err != nil {
			rel = f.Path
		}
		modified := time.Unix(f.ModTime, 0).Format("2006-01-02 15:04")

		data, err := os.ReadFile(f.Path)
		if err != nil {
			table.Append([]string{rel, "", "", "", "", modified, err.Error()})
			listed++
			continue
		}
		m, err := model.Parse(data, model.FormatFor(f.Path, ""), f.Path)
		if err != nil {
			// Not every JSON or YAML file is a model.
			logger.Debug("skipping file", "path", f.Path, "error", err)
			continue
		}

		s := uc.Summary(m)
		status := color.Green.Sprint("ok")
		if err := uc.Check(m); err != nil {
			status = color.Red.Sprint(err.Error())
		} else {
			usable++
		}
		table.Append([]string{
			rel,
			s.Version,
			strconv.Itoa(s.Features),
			strconv.Itoa(s.Dimension),
			strconv.Itoa(s.Centroids),
			modified,
			status,
		})
		listed++
	}

	if listed == 0 {
		fmt.Printf("No models found under %s\n", path)
		return nil
	}
	table.Render()
	fmt.Printf("\n%d of %d model(s) usable\n", usable, listed)
	return nil
}
