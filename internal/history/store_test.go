package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStore_SaveAndGetRun(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := NewRun(ToolSmoke, "ollama")
	run.Checks = []CheckRecord{
		{Name: "service health", Passed: true, Message: "ok"},
		{Name: "model availability", Passed: false, Message: "model missing"},
	}
	run.Finish(false, "1/2 passed")

	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}

	if got.Tool != ToolSmoke {
		t.Errorf("Tool = %q, want %q", got.Tool, ToolSmoke)
	}
	if got.Subject != "ollama" {
		t.Errorf("Subject = %q, want ollama", got.Subject)
	}
	if got.Success {
		t.Error("Success = true, want false")
	}
	if got.Detail != "1/2 passed" {
		t.Errorf("Detail = %q", got.Detail)
	}
	if len(got.Checks) != 2 {
		t.Fatalf("Checks count = %d, want 2", len(got.Checks))
	}
	if got.Checks[0].Name != "service health" || !got.Checks[0].Passed {
		t.Errorf("Checks[0] = %+v", got.Checks[0])
	}
	if got.Checks[1].Message != "model missing" {
		t.Errorf("Checks[1].Message = %q", got.Checks[1].Message)
	}
}

func TestStore_ListRuns(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	runs := []*Run{
		{ID: "a", Tool: ToolCommitter, Subject: "results/one", Success: true, StartedAt: base, FinishedAt: base},
		{ID: "b", Tool: ToolSmoke, Subject: "ollama", Success: false, StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute)},
		{ID: "c", Tool: ToolCommitter, Subject: "results/two", Success: false, StartedAt: base.Add(2 * time.Minute), FinishedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if err := store.SaveRun(r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.ListRuns(ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("order = %s,%s,%s, want c,b,a", all[0].ID, all[1].ID, all[2].ID)
	}

	committed, err := store.ListRuns(ListOptions{Tool: ToolCommitter})
	if err != nil {
		t.Fatal(err)
	}
	if len(committed) != 2 {
		t.Errorf("got %d committer runs, want 2", len(committed))
	}

	limited, err := store.ListRuns(ListOptions{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Errorf("limited = %v", limited)
	}
}

func TestRecord_File(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	run := NewRun(ToolCleanup, "workflow")
	run.Finish(true, "removed 2")
	Record(dbPath, run, nil)

	store, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Detail != "removed 2" {
		t.Errorf("Detail = %q, want removed 2", got.Detail)
	}
}

func TestRecord_Disabled(t *testing.T) {
	// must not panic or create anything
	Record("", NewRun(ToolSmoke, "ollama"), nil)
	Record(filepath.Join(t.TempDir(), "x.db"), nil, nil)
}
