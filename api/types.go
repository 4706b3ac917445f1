package api

import (
	"context"

	"noteboard-api/board"
	"noteboard-api/domain"
)

// Board abstracts the task-board service for handlers.
type Board interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, userID string, in board.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, in board.TaskEdit) (domain.Task, error)
	ChangeStatus(ctx context.Context, userID, taskID string, status domain.Status) (domain.Task, error)
	SetPosition(ctx context.Context, userID, taskID string, position int) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error

	CreateNote(ctx context.Context, userID string, in board.NoteInput) (domain.Note, error)
	GetNote(ctx context.Context, userID, noteID string) (domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, in board.NoteInput) (domain.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error

	Ingest(ctx context.Context, userID, noteID string, items []domain.CandidateItem) (board.IngestResult, error)
}

// Extractor produces candidate tasks from free text. It never writes.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.ExtractionResult, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of repeated ingestion requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
