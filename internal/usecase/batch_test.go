package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"clusterform/internal/adapter/memstore"
	"clusterform/internal/domain"
)

const batchCSV = `age, owns_home
40,yes
20,no
,yes
30,maybe
`

func TestReadRows(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(batchCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Line != 2 || rows[0].Values["owns_home"] != "yes" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[2].Values["age"] != "" {
		t.Errorf("expected empty age, got %q", rows[2].Values["age"])
	}

	if _, err := ReadRows(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestBatch_KeepsOrderAndCollectsErrors(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(batchCSV))
	if err != nil {
		t.Fatal(err)
	}

	store := memstore.NewMemoryStore(0)
	batch := NewBatchUseCase(newClassify(store), 3)

	var mu sync.Mutex
	calls := 0
	results, err := batch.Run(context.Background(), exampleModel(), rows, func(processed, total int) {
		mu.Lock()
		calls++
		mu.Unlock()
		if total != 4 {
			t.Errorf("expected total 4, got %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if calls != 4 {
		t.Errorf("expected 4 progress calls, got %d", calls)
	}
	for i, r := range results {
		if r.Line != rows[i].Line {
			t.Errorf("result %d out of order: line %d, want %d", i, r.Line, rows[i].Line)
		}
	}
	if results[0].Err != nil || results[0].Outcome.Result.Best.ClusterID != "0" {
		t.Errorf("expected row 1 in cluster 0, got %+v", results[0])
	}
	if !errors.Is(results[2].Err, domain.ErrMissingRequiredField) {
		t.Errorf("expected missing age, got %v", results[2].Err)
	}
	if !errors.Is(results[3].Err, domain.ErrInvalidCategoryValue) {
		t.Errorf("expected invalid category, got %v", results[3].Err)
	}

	s := Summarize(results)
	if s.Rows != 4 || s.Succeeded != 2 || s.Failed != 2 {
		t.Errorf("unexpected summary %+v", s)
	}

	history, _ := store.ListHistory(0)
	if len(history) != 0 {
		t.Errorf("expected batch runs not to be recorded, got %d", len(history))
	}
}

func TestBatch_RejectsBrokenModel(t *testing.T) {
	m := exampleModel()
	m.Centroids = nil

	_, err := NewBatchUseCase(newClassify(nil), 2).Run(context.Background(), m, nil, nil)
	if !errors.Is(err, domain.ErrEmptyModel) {
		t.Errorf("expected ErrEmptyModel, got %v", err)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	rows := make([]BatchRow, 50)
	for i := range rows {
		rows[i] = BatchRow{Line: i + 2, Values: domain.RawValues{"age": "30", "owns_home": "yes"}}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBatchUseCase(newClassify(nil), 1).Run(ctx, exampleModel(), rows, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
