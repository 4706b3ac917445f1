package storage

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"noteboard-api/domain"
)

func TestTaskEntityRoundTrip(t *testing.T) {
	due := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 6, 12, 30, 0, 0, time.UTC)
	task := domain.Task{
		ID:          "task-1",
		Title:       "Update docs",
		Description: "John owns this",
		Priority:    domain.PriorityHigh,
		Status:      domain.StatusDoing,
		DueDate:     &due,
		Position:    3,
		NoteID:      "note-1",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
	}

	ent := taskToEntity("user-1", task)
	if ent.PartitionKey != "user-1" || ent.RowKey != "task-1" {
		t.Fatalf("unexpected keys: %q / %q", ent.PartitionKey, ent.RowKey)
	}

	data, err := json.Marshal(ent)
	if err != nil {
		t.Fatalf("marshal entity: %v", err)
	}
	got, err := decodeTaskEntity(data)
	if err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	if got.ID != task.ID || got.Title != task.Title || got.Priority != task.Priority ||
		got.Status != task.Status || got.Position != task.Position || got.NoteID != task.NoteID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date mismatch: %v", got.DueDate)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("timestamps mismatch: %+v", got)
	}
}

func TestTaskEntityNilDueDate(t *testing.T) {
	ent := taskToEntity("user-1", domain.Task{ID: "task-1", Title: "T"})
	if ent.DueDate != "" {
		t.Fatalf("expected empty due date column, got %q", ent.DueDate)
	}

	data, err := json.Marshal(ent)
	if err != nil {
		t.Fatalf("marshal entity: %v", err)
	}
	got, err := decodeTaskEntity(data)
	if err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	if got.DueDate != nil {
		t.Fatalf("expected nil due date, got %v", got.DueDate)
	}
}

func TestNoteEntityRoundTrip(t *testing.T) {
	created := time.Date(2026, 2, 6, 9, 0, 0, 0, time.UTC)
	note := domain.Note{ID: "note-1", Title: "Standup", Body: "notes body", CreatedAt: created, UpdatedAt: created}

	data, err := json.Marshal(noteToEntity("user-1", note))
	if err != nil {
		t.Fatalf("marshal entity: %v", err)
	}
	got, err := decodeNoteEntity(data)
	if err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	if got.ID != note.ID || got.Title != note.Title || got.Body != note.Body {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("timestamp mismatch: %v", got.CreatedAt)
	}
}

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Fatal("nil must map to nil")
	}
	notFound := &azcore.ResponseError{StatusCode: http.StatusNotFound}
	if !errors.Is(mapError(notFound), domain.ErrNotFound) {
		t.Fatal("404 must map to domain.ErrNotFound")
	}
	conflict := &azcore.ResponseError{StatusCode: http.StatusConflict}
	if errors.Is(mapError(conflict), domain.ErrNotFound) {
		t.Fatal("409 must pass through unchanged")
	}
}
