package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"clusterform/internal/domain"
)

// BatchRow is one input record. Line is the 1-based line in the source.
type BatchRow struct {
	Line   int
	Values domain.RawValues
}

// BatchResult pairs a row with its outcome or error.
type BatchResult struct {
	Line    int
	Values  domain.RawValues
	Outcome *Outcome
	Err     error
}

// BatchSummary counts successes and failures per run.
type BatchSummary struct {
	Rows      int
	Succeeded int
	Failed    int
	PerBest   map[domain.ClusterID]int
}

// ProgressFunc is called after every processed row.
type ProgressFunc func(processed, total int)

// BatchUseCase classifies many rows against one model.
type BatchUseCase struct {
	classify *ClassifyUseCase
	workers  int
}

func NewBatchUseCase(classify *ClassifyUseCase, workers int) *BatchUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &BatchUseCase{
		classify: classify.WithoutRecording(),
		workers:  workers,
	}
}

// ReadRows parses CSV with a header row of feature names.
func ReadRows(r io.Reader) ([]BatchRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []BatchRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		values := make(domain.RawValues, len(header))
		for i, name := range header {
			if i < len(record) {
				values[name] = record[i]
			}
		}
		rows = append(rows, BatchRow{Line: line, Values: values})
	}
	return rows, nil
}

// Run classifies rows with a bounded worker pool. Results keep input order.
// Row-level failures are reported per result; the returned error is set
// only when the model itself is unusable or ctx is cancelled.
func (u *BatchUseCase) Run(ctx context.Context, model *domain.Model, rows []BatchRow, progress ProgressFunc) ([]BatchResult, error) {
	if err := u.classify.Check(model); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(rows))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)

	for w := 0; w < u.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				row := rows[i]
				outcome, err := u.classify.Classify(model, row.Values)
				results[i] = BatchResult{Line: row.Line, Values: row.Values, Outcome: outcome, Err: err}

				mu.Lock()
				processed++
				if progress != nil {
					progress(processed, len(rows))
				}
				mu.Unlock()
			}
		}()
	}

	var cancelled error
dispatch:
	for i := range rows {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}

// Summarize tallies a batch run.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Rows: len(results), PerBest: make(map[domain.ClusterID]int)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.PerBest[r.Outcome.Result.Best.ClusterID]++
	}
	return s
}
