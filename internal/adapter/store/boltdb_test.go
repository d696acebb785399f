package store

import (
	"path/filepath"
	"testing"
	"time"

	"clusterform/internal/domain"
)

func openStore(t *testing.T, historyLimit int) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "state.db"), historyLimit)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestBoltStore_Values(t *testing.T) {
	st := openStore(t, 0)

	if err := st.SaveValues(domain.RawValues{"age": "40", "home": "yes"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveValues(domain.RawValues{"age": "41"}); err != nil {
		t.Fatal(err)
	}

	values, err := st.LoadValues()
	if err != nil {
		t.Fatal(err)
	}
	if values["age"] != "41" {
		t.Errorf("expected age=41, got %q", values["age"])
	}
	if values["home"] != "yes" {
		t.Errorf("expected home=yes to survive a partial save, got %q", values["home"])
	}
}

func TestBoltStore_ValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := NewBoltStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveValues(domain.RawValues{"age": "40"}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = NewBoltStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	values, err := st.LoadValues()
	if err != nil {
		t.Fatal(err)
	}
	if values["age"] != "40" {
		t.Errorf("expected age=40 after reopen, got %q", values["age"])
	}
}

func entry(id string, best string) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:           id,
		ModelVersion: "1",
		Best:         domain.RankedCentroid{ClusterID: domain.ClusterID(best)},
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBoltStore_HistoryNewestFirst(t *testing.T) {
	st := openStore(t, 0)

	for _, e := range []domain.HistoryEntry{entry("01", "a"), entry("02", "b"), entry("03", "c")} {
		if err := st.AppendHistory(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := st.ListHistory(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "03" || got[1].ID != "02" {
		t.Errorf("expected newest first, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestBoltStore_HistoryLimitPrunesOldest(t *testing.T) {
	st := openStore(t, 2)

	for _, id := range []string{"01", "02", "03"} {
		if err := st.AppendHistory(entry(id, "x")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := st.ListHistory(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after pruning, got %d", len(got))
	}
	if got[1].ID != "02" {
		t.Errorf("expected oldest entry 01 pruned, got %s", got[1].ID)
	}
}

func TestBoltStore_HistoryGeneratesIDs(t *testing.T) {
	st := openStore(t, 0)

	for i := 0; i < 3; i++ {
		if err := st.AppendHistory(domain.HistoryEntry{ModelVersion: "v"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.ListHistory(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for _, e := range got {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Errorf("expected generated id and timestamp, got %+v", e)
		}
	}
}

func TestBoltStore_ClearHistory(t *testing.T) {
	st := openStore(t, 0)
	st.AppendHistory(entry("01", "a"))
	st.SaveValues(domain.RawValues{"age": "1"})

	if err := st.ClearHistory(); err != nil {
		t.Fatal(err)
	}
	got, _ := st.ListHistory(0)
	if len(got) != 0 {
		t.Errorf("expected empty history, got %d", len(got))
	}
	values, _ := st.LoadValues()
	if values["age"] != "1" {
		t.Error("expected values to be kept")
	}
}

func TestBoltStore_Migration(t *testing.T) {
	st := openStore(t, 0)

	result, err := st.CheckMigration("fp1")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NeedsMigration || result.OldVersion != 0 {
		t.Errorf("expected fresh store to need migration, got %+v", result)
	}

	if err := st.Migrate("fp1"); err != nil {
		t.Fatal(err)
	}

	result, err = st.CheckMigration("fp1")
	if err != nil {
		t.Fatal(err)
	}
	if result.NeedsMigration || result.ModelChanged {
		t.Errorf("expected up-to-date store, got %+v", result)
	}

	result, err = st.CheckMigration("fp2")
	if err != nil {
		t.Fatal(err)
	}
	if !result.ModelChanged {
		t.Error("expected model change to be detected")
	}
}

func TestBoltStore_NewerSchemaNeedsReset(t *testing.T) {
	st := openStore(t, 0)
	if err := st.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}

	result, err := st.CheckMigration("")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NeedsReset {
		t.Errorf("expected reset for newer schema, got %+v", result)
	}

	st.SaveValues(domain.RawValues{"a": "1"})
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}
	values, _ := st.LoadValues()
	if len(values) != 0 {
		t.Errorf("expected values cleared, got %v", values)
	}
}
