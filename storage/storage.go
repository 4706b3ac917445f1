package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"noteboard-api/domain"
)

// Storage persists tasks and notes in Azure Table Storage. Users map to
// partitions, entities to rows.
type Storage struct {
	taskTable *aztables.Client
	noteTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, notesTable string) (*Storage, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		taskTable: svc.NewClient(tasksTable),
		noteTable: svc.NewClient(notesTable),
	}, nil
}

const timeLayout = time.RFC3339Nano

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	Status      string `json:"Status"`
	DueDate     string `json:"DueDate"`
	Position    int    `json:"Position"`
	NoteID      string `json:"NoteId"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

type noteEntity struct {
	aztables.Entity
	Title     string `json:"Title"`
	Body      string `json:"Body"`
	CreatedAt string `json:"CreatedAt"`
	UpdatedAt string `json:"UpdatedAt"`
}

func taskToEntity(userID string, t domain.Task) taskEntity {
	ent := taskEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Position:    t.Position,
		NoteID:      t.NoteID,
		CreatedAt:   t.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:   t.UpdatedAt.UTC().Format(timeLayout),
	}
	if t.DueDate != nil {
		ent.DueDate = t.DueDate.UTC().Format(timeLayout)
	}
	return ent
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	task := domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Status:      domain.Status(ent.Status),
		Position:    ent.Position,
		NoteID:      ent.NoteID,
	}
	if ent.DueDate != "" {
		due, err := time.Parse(timeLayout, ent.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		task.DueDate = &due
	}
	var err error
	if task.CreatedAt, err = parseEntityTime(ent.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	if task.UpdatedAt, err = parseEntityTime(ent.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func decodeNoteEntity(data []byte) (domain.Note, error) {
	var ent noteEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Note{}, err
	}
	note := domain.Note{
		ID:    ent.RowKey,
		Title: ent.Title,
		Body:  ent.Body,
	}
	var err error
	if note.CreatedAt, err = parseEntityTime(ent.CreatedAt); err != nil {
		return domain.Note{}, err
	}
	if note.UpdatedAt, err = parseEntityTime(ent.UpdatedAt); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func parseEntityTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// mapError converts table-service 404s into the domain's not-found kind.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

func replaceOptions() *aztables.UpdateEntityOptions {
	etag := azcore.ETag("*")
	return &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	}
}

// InsertTask adds one task row.
func (s *Storage) InsertTask(ctx context.Context, userID string, task domain.Task) error {
	data, err := json.Marshal(taskToEntity(userID, task))
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, data, nil)
	return mapError(err)
}

// GetTask loads one task row from the user's partition.
func (s *Storage) GetTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, userID, taskID, nil)
	if err != nil {
		return domain.Task{}, mapError(err)
	}
	return decodeTaskEntity(resp.Value)
}

// UpdateTask replaces one task row.
func (s *Storage) UpdateTask(ctx context.Context, userID string, task domain.Task) error {
	data, err := json.Marshal(taskToEntity(userID, task))
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpdateEntity(ctx, data, replaceOptions())
	return mapError(err)
}

// DeleteTask removes one task row.
func (s *Storage) DeleteTask(ctx context.Context, userID, taskID string) error {
	_, err := s.taskTable.DeleteEntity(ctx, userID, taskID, nil)
	return mapError(err)
}

// ListTasks retrieves all tasks for the provided user.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// MaxPosition returns the largest position among the user's tasks with the
// given status, or -1 when that column is empty. The table service has no
// aggregates, so the maximum is computed client-side over a projected query.
func (s *Storage) MaxPosition(ctx context.Context, userID string, status domain.Status) (int, error) {
	filter := "PartitionKey eq '" + userID + "' and Status eq '" + string(status) + "'"
	sel := "Position"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Select: &sel})
	max := -1
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return 0, mapError(err)
		}
		for _, e := range resp.Entities {
			var row struct {
				Position int `json:"Position"`
			}
			if err := json.Unmarshal(e, &row); err != nil {
				return 0, err
			}
			if row.Position > max {
				max = row.Position
			}
		}
	}
	return max, nil
}

// InsertNote adds one note row.
func (s *Storage) InsertNote(ctx context.Context, userID string, note domain.Note) error {
	data, err := json.Marshal(noteToEntity(userID, note))
	if err != nil {
		return err
	}
	_, err = s.noteTable.AddEntity(ctx, data, nil)
	return mapError(err)
}

// GetNote loads one note row from the user's partition.
func (s *Storage) GetNote(ctx context.Context, userID, noteID string) (domain.Note, error) {
	resp, err := s.noteTable.GetEntity(ctx, userID, noteID, nil)
	if err != nil {
		return domain.Note{}, mapError(err)
	}
	return decodeNoteEntity(resp.Value)
}

// ListNotes retrieves all notes for the provided user.
func (s *Storage) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.noteTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	notes := []domain.Note{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, e := range resp.Entities {
			note, err := decodeNoteEntity(e)
			if err != nil {
				return nil, err
			}
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func noteToEntity(userID string, note domain.Note) noteEntity {
	return noteEntity{
		Entity:    aztables.Entity{PartitionKey: userID, RowKey: note.ID},
		Title:     note.Title,
		Body:      note.Body,
		CreatedAt: note.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: note.UpdatedAt.UTC().Format(timeLayout),
	}
}

// UpdateNote replaces one note row.
func (s *Storage) UpdateNote(ctx context.Context, userID string, note domain.Note) error {
	data, err := json.Marshal(noteToEntity(userID, note))
	if err != nil {
		return err
	}
	_, err = s.noteTable.UpdateEntity(ctx, data, replaceOptions())
	return mapError(err)
}

// DeleteNote removes one note row.
func (s *Storage) DeleteNote(ctx context.Context, userID, noteID string) error {
	_, err := s.noteTable.DeleteEntity(ctx, userID, noteID, nil)
	return mapError(err)
}

// DetachTasks clears the note reference on every task created from the given
// note. Rows are rewritten one by one; the tasks themselves are kept.
func (s *Storage) DetachTasks(ctx context.Context, userID, noteID string) error {
	filter := "PartitionKey eq '" + userID + "' and NoteId eq '" + noteID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return mapError(err)
		}
		for _, e := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return err
			}
			ent.NoteID = ""
			data, err := json.Marshal(ent)
			if err != nil {
				return err
			}
			if _, err := s.taskTable.UpdateEntity(ctx, data, replaceOptions()); err != nil {
				return mapError(err)
			}
		}
	}
	return nil
}
