package board

import (
	"context"
	"strings"
	"time"

	"noteboard-api/domain"
)

// TaskInput carries the fields of a manual single-task create.
type TaskInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.Status
	DueDate     *time.Time
}

// TaskEdit carries a full-field edit. It replaces every editable field;
// status and position are changed through their own operations only.
type TaskEdit struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *time.Time
}

// CreateTask creates one task at the tail of its column. Priority defaults to
// medium and status to todo.
func (s *Service) CreateTask(ctx context.Context, userID string, in TaskInput) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, domain.NewValidationError("task title must not be empty")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return domain.Task{}, domain.NewValidationError("unknown priority %q", in.Priority)
	}
	status := in.Status
	if status == "" {
		status = domain.StatusTodo
	}
	if !status.Valid() {
		return domain.Task{}, domain.NewValidationError("unknown status %q", in.Status)
	}

	pos, err := s.tailPosition(ctx, userID, status)
	if err != nil {
		return domain.Task{}, err
	}

	now := s.now()
	task := domain.Task{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
		Position:    pos,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertTask(ctx, userID, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a full-field edit to an existing task.
func (s *Service) UpdateTask(ctx context.Context, userID, taskID string, in TaskEdit) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, domain.NewValidationError("task title must not be empty")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return domain.Task{}, domain.NewValidationError("unknown priority %q", in.Priority)
	}

	task, err := s.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	task.Title = title
	task.Description = strings.TrimSpace(in.Description)
	task.Priority = priority
	task.DueDate = in.DueDate
	task.UpdatedAt = s.now()

	if err := s.store.UpdateTask(ctx, userID, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ChangeStatus moves a task to another column, appending it at that column's
// tail. Re-asserting the current status leaves the position untouched, so a
// status no-op cannot be used to bump a task to the end of its own column.
func (s *Service) ChangeStatus(ctx context.Context, userID, taskID string, status domain.Status) (domain.Task, error) {
	if !status.Valid() {
		return domain.Task{}, domain.NewValidationError("unknown status %q", status)
	}

	task, err := s.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if status != task.Status {
		pos, err := s.tailPosition(ctx, userID, status)
		if err != nil {
			return domain.Task{}, err
		}
		task.Status = status
		task.Position = pos
	}
	task.UpdatedAt = s.now()

	if err := s.store.UpdateTask(ctx, userID, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// SetPosition stores a caller-chosen position verbatim. Siblings are not
// renumbered; drag-and-drop callers own the consistency of their ordering and
// collisions fall back to the SortBoard tie-break.
func (s *Service) SetPosition(ctx context.Context, userID, taskID string, position int) (domain.Task, error) {
	if position < 0 {
		return domain.Task{}, domain.NewValidationError("position must not be negative")
	}

	task, err := s.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	task.Position = position
	task.UpdatedAt = s.now()

	if err := s.store.UpdateTask(ctx, userID, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a single task. Tasks are leaf entities; nothing
// cascades.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.store.DeleteTask(ctx, userID, taskID)
}

// ListTasks returns the user's whole board in column render order.
func (s *Service) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortBoard(tasks)
	return tasks, nil
}
