package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"clusterform/config"
	"clusterform/internal/adapter/cache"
	"clusterform/internal/adapter/encoder"
	"clusterform/internal/adapter/model"
	"clusterform/internal/domain"
	"clusterform/internal/port"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	modelRef string
	logLevel string
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clusterform",
	Short: "Clusterform - Place a record into the nearest customer cluster",
	Long: `Clusterform compiles a model's feature space into a vector layout,
encodes raw field values into that layout and ranks the model's cluster
centroids by Euclidean distance.

Example usage:
  clusterform inspect                                  # Show the feature layout
  clusterform classify --set age=40 --set owns_home=yes
  clusterform batch --input customers.csv              # Classify a CSV file`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// A missing .env is fine.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if modelRef != "" {
			cfg.Model.Path = modelRef
		}

		logger = logs.GetLoggerFromString(strings.ToUpper(cfg.Logging.Level))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./clusterform.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&modelRef, "model", "m", "", "model file or URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetRootDir() string {
	return rootDir
}

// loadModel loads the configured model.
func loadModel(ctx context.Context) (*domain.Model, error) {
	ref := cfg.ModelRef(rootDir)
	if ref == "" {
		return nil, fmt.Errorf("no model configured. Use --model or set model.path")
	}

	var source port.ModelSource = model.NewLoader(time.Duration(cfg.Model.TimeoutSecs) * time.Second)
	m, err := source.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded",
		"source", m.Source,
		"version", m.Version,
		"features", len(m.FeatureSpace),
		"centroids", len(m.Centroids))
	return m, nil
}

func newPlanCache() *cache.PlanCache {
	return cache.NewPlanCache(cfg.Cache.MaxPlans, encoder.Compile)
}
