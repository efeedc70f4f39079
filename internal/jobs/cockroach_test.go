package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/skreaver/skreaver/internal/toolregistry"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *CockroachStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, &CockroachStore{db: db}
}

func TestCockroachStoreCreate(t *testing.T) {
	mock, store := setupMockDB(t)
	job := &Job{ID: "job-1", ToolName: "shell_exec", ToolCallID: "call-1", Status: StatusQueued, CreatedAt: time.Now(), Result: toolregistry.Ok("done")}

	mock.ExpectExec("INSERT INTO tool_jobs").WithArgs(
		job.ID, job.ToolName, job.ToolCallID, string(job.Status), job.CreatedAt,
		sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
	).WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachStoreGetFound(t *testing.T) {
	mock, store := setupMockDB(t)
	now := time.Now()
	resultJSON, err := marshalResult(toolregistry.Ok("done"))
	if err != nil {
		t.Fatalf("marshalResult: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "tool_name", "tool_call_id", "status", "created_at", "started_at", "finished_at", "result", "error_message"}).
		AddRow("job-1", "shell_exec", "call-1", string(StatusSucceeded), now, sql.NullTime{}, sql.NullTime{Time: now, Valid: true}, resultJSON, sql.NullString{})
	mock.ExpectQuery("SELECT .* FROM tool_jobs WHERE id = \\$1").WithArgs("job-1").WillReturnRows(rows)

	got, err := store.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Status != StatusSucceeded || got.Result == nil || got.Result.Output != "done" {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestCockroachStoreGetNotFound(t *testing.T) {
	mock, store := setupMockDB(t)
	mock.ExpectQuery("SELECT .* FROM tool_jobs WHERE id = \\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil job, got %+v", got)
	}
}

func TestCockroachStoreList(t *testing.T) {
	mock, store := setupMockDB(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tool_name", "tool_call_id", "status", "created_at", "started_at", "finished_at", "result", "error_message"}).
		AddRow("job-2", "tool", "call-2", string(StatusQueued), now, sql.NullTime{}, sql.NullTime{}, nil, sql.NullString{}).
		AddRow("job-1", "tool", "call-1", string(StatusQueued), now, sql.NullTime{}, sql.NullTime{}, nil, sql.NullString{})
	mock.ExpectQuery("SELECT .* FROM tool_jobs").WillReturnRows(rows)

	got, err := store.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got))
	}
}

func TestMarshalResultRoundTrip(t *testing.T) {
	result := toolregistry.Ok("payload")
	data, err := marshalResult(result)
	if err != nil {
		t.Fatalf("marshalResult: %v", err)
	}
	var restored toolregistry.ExecutionResult
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Output != "payload" || !restored.Success {
		t.Fatalf("unexpected round-trip result: %+v", restored)
	}
}
