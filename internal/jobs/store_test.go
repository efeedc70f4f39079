package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/skreaver/skreaver/internal/toolregistry"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	job := &Job{
		ID:         "job-1",
		ToolName:   "tool",
		ToolCallID: "call-1",
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
		Result:     toolregistry.Ok("ok"),
	}

	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "job-1" {
		t.Fatalf("expected job, got %+v", got)
	}
	if got.Result == nil || got.Result.Output != "ok" {
		t.Fatalf("expected result output, got %+v", got.Result)
	}

	job.Status = StatusSucceeded
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.Get(context.Background(), "job-1")
	if got.Status != StatusSucceeded {
		t.Fatalf("expected status %q, got %q", StatusSucceeded, got.Status)
	}
}

func TestMemoryStoreListOrderAndPagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ids := []string{"job-a", "job-b", "job-c"}
	for _, id := range ids {
		if err := store.Create(ctx, &Job{ID: id, Status: StatusQueued, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := store.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}

	page, err := store.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list paginated: %v", err)
	}
	if len(page) != 1 || page[0].ID != all[1].ID {
		t.Fatalf("expected page [%s], got %+v", all[1].ID, page)
	}
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	old := &Job{ID: "old", Status: StatusSucceeded, CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &Job{ID: "fresh", Status: StatusSucceeded, CreatedAt: time.Now()}
	_ = store.Create(ctx, old)
	_ = store.Create(ctx, fresh)

	pruned, err := store.Prune(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}
	if got, _ := store.Get(ctx, "old"); got != nil {
		t.Fatalf("expected old job pruned, still present: %+v", got)
	}
	if got, _ := store.Get(ctx, "fresh"); got == nil {
		t.Fatal("expected fresh job to survive prune")
	}
}

func TestMemoryStoreCancel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Create(ctx, &Job{ID: "job-1", Status: StatusRunning, CreatedAt: time.Now()})

	cancelled := false
	store.SetCancelFunc("job-1", func() { cancelled = true })

	if err := store.Cancel(ctx, "job-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled {
		t.Fatal("expected cancel func to be invoked")
	}
	got, _ := store.Get(ctx, "job-1")
	if got.Status != StatusFailed || got.Error == "" {
		t.Fatalf("expected job marked failed with error, got %+v", got)
	}
}
