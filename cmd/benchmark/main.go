package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"clusterform/config"
	"clusterform/internal/adapter/cache"
	"clusterform/internal/adapter/encoder"
	"clusterform/internal/adapter/model"
	"clusterform/internal/domain"
	"clusterform/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding clusterform.yaml")
	modelRef := flag.String("model", "", "Model file or URL (default from config)")
	rows := flag.Int("n", 10000, "Number of synthetic records")
	workers := flag.Int("workers", 0, "Batch workers (default from config)")
	seed := flag.Int64("seed", 1, "Random seed for synthetic records")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *modelRef != "" {
		cfg.Model.Path = *modelRef
	}
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}

	loader := model.NewLoader(time.Duration(cfg.Model.TimeoutSecs) * time.Second)
	m, err := loader.Load(context.Background(), cfg.ModelRef(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}

	plans := cache.NewPlanCache(cfg.Cache.MaxPlans, encoder.Compile)
	classify := usecase.NewClassifyUseCase(plans, nil, nil)
	if err := classify.Check(m); err != nil {
		fmt.Fprintf(os.Stderr, "Model not usable: %v\n", err)
		os.Exit(1)
	}
	summary := classify.Summary(m)

	fmt.Println("CLASSIFICATION BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Model:      %s (version %s)\n", m.Source, summary.Version)
	fmt.Printf("Features:   %d\n", summary.Features)
	fmt.Printf("Dimension:  %d\n", summary.Dimension)
	fmt.Printf("Centroids:  %d\n", summary.Centroids)
	fmt.Println()

	rng := rand.New(rand.NewSource(*seed))
	records := make([]usecase.BatchRow, *rows)
	for i := range records {
		records[i] = usecase.BatchRow{Line: i + 1, Values: syntheticValues(m, rng)}
	}

	start := time.Now()
	if _, err := encoder.Compile(m.FeatureSpace); err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}
	compileCost := time.Since(start)

	start = time.Now()
	for _, r := range records {
		if _, err := classify.Classify(m, r.Values); err != nil {
			fmt.Fprintf(os.Stderr, "Record %d: %v\n", r.Line, err)
			os.Exit(1)
		}
	}
	serial := time.Since(start)

	batch := usecase.NewBatchUseCase(classify, *workers)
	start = time.Now()
	results, err := batch.Run(context.Background(), m, records, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch error: %v\n", err)
		os.Exit(1)
	}
	parallel := time.Since(start)

	hits, misses := plans.Stats()
	fmt.Printf("Records: %d\n", len(records))
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("  Compile (uncached):  %s\n", compileCost)
	fmt.Printf("  Serial classify:     %s (%s/record)\n", serial, perRecord(serial, len(records)))
	fmt.Printf("  Batch, %d workers:   %s (%s/record)\n", *workers, parallel, perRecord(parallel, len(records)))
	fmt.Printf("  Plan cache:          %d hits, %d misses\n", hits, misses)
	fmt.Println()

	s := usecase.Summarize(results)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("CLUSTER DISTRIBUTION:\n")
	ids := make([]string, 0, len(s.PerBest))
	for id := range s.PerBest {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := s.PerBest[domain.ClusterID(id)]
		share := float64(n) / float64(s.Rows)
		fmt.Printf("  %-12s %6d  %5.1f%% %s\n", id, n, share*100, strings.Repeat("#", int(share*40)))
	}
	if s.Failed > 0 {
		fmt.Printf("  failed       %6d\n", s.Failed)
	}
}

// syntheticValues draws one record: numbers uniformly within min/max (or
// mean ± 2 std), categories uniformly.
func syntheticValues(m *domain.Model, rng *rand.Rand) domain.RawValues {
	values := make(domain.RawValues, len(m.FeatureSpace))
	for _, f := range m.FeatureSpace {
		if cats := f.Categories(); len(cats) > 0 {
			values[f.Name] = cats[rng.Intn(len(cats))]
			continue
		}
		low, high := numericRange(f)
		values[f.Name] = strconv.FormatFloat(low+rng.Float64()*(high-low), 'f', 2, 64)
	}
	return values
}

func numericRange(f domain.FeatureDescriptor) (float64, float64) {
	if f.Min != nil && f.Max != nil {
		return *f.Min, *f.Max
	}
	mean, std := 0.0, 1.0
	if f.Mean != nil {
		mean = *f.Mean
	}
	if f.Std != nil {
		std = *f.Std
	}
	return mean - 2*std, mean + 2*std
}

func perRecord(d time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return d / time.Duration(n)
}
