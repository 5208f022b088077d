package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/store"
	"github.com/phrazzld/leadflow/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskColumnNames = []string{
	"id", "type", "payload", "status", "attempts", "error_message", "created_at", "updated_at",
}

func TestPostgresTaskStore_SaveTask(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	payload, err := json.Marshal(map[string]string{"lead_id": uuid.NewString()})
	require.NoError(t, err)
	tk := task.NewMockTask(task.TaskTypeLeadEnrichment, payload)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(tk.ID(), task.TaskTypeLeadEnrichment, string(payload), "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveTask(context.Background(), tk))
}

func TestPostgresTaskStore_MarkProcessing(t *testing.T) {
	t.Parallel()

	t.Run("records attempt", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())
		id := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("SET status = $1, attempts = $2")).
			WithArgs("processing", 2, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.MarkProcessing(context.Background(), id, 2))
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.MarkProcessing(context.Background(), uuid.New(), 1)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_UpdateTaskStatus(t *testing.T) {
	t.Parallel()

	t.Run("stores error message", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())
		id := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("error_message = NULLIF($2, '')")).
			WithArgs("failed", "boom", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusFailed, "boom"))
	})

	t.Run("driver error", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())
		cause := errors.New("connection reset")

		mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).WillReturnError(cause)

		err := s.UpdateTaskStatus(context.Background(), uuid.New(), task.TaskStatusCompleted, "")
		assert.ErrorIs(t, err, cause)
	})
}

func TestPostgresTaskStore_GetPendingTasks(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows(taskColumnNames).
			AddRow(id.String(), task.TaskTypeLeadEnrichment, []byte(`{"lead_id":"x"}`), "pending", 0, nil, now, now))

	records, err := s.GetPendingTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, task.TaskStatusPending, records[0].Status)
	assert.JSONEq(t, `{"lead_id":"x"}`, string(records[0].Payload))
	assert.Empty(t, records[0].ErrorMessage)
}

func TestPostgresTaskStore_GetProcessingTasks(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())
	id := uuid.New()
	stale := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND updated_at < $2")).
		WithArgs("processing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(taskColumnNames).
			AddRow(id.String(), task.TaskTypeLeadEnrichment, []byte(`{}`), "processing", 2, "timeout", stale, stale))

	records, err := s.GetProcessingTasks(context.Background(), 10*time.Minute)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Attempts)
	assert.Equal(t, "timeout", records[0].ErrorMessage)
}
