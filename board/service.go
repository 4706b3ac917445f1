package board

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"noteboard-api/domain"
)

// Store abstracts persistence for the board service. Every call is scoped to
// one user's partition; lookups outside it report domain.ErrNotFound.
type Store interface {
	InsertTask(ctx context.Context, userID string, task domain.Task) error
	GetTask(ctx context.Context, userID, taskID string) (domain.Task, error)
	UpdateTask(ctx context.Context, userID string, task domain.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	MaxPosition(ctx context.Context, userID string, status domain.Status) (int, error)

	InsertNote(ctx context.Context, userID string, note domain.Note) error
	GetNote(ctx context.Context, userID, noteID string) (domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	UpdateNote(ctx context.Context, userID string, note domain.Note) error
	DeleteNote(ctx context.Context, userID, noteID string) error
	DetachTasks(ctx context.Context, userID, noteID string) error
}

// Service owns the board's write rules: tail-append positioning for creates
// and status changes, verbatim positions for explicit reorders, and bulk
// ingestion of approved extraction candidates.
type Service struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a board service backed by the given store.
func NewService(store Store, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

var statusRank = map[domain.Status]int{
	domain.StatusTodo:  0,
	domain.StatusDoing: 1,
	domain.StatusDone:  2,
}

// SortBoard orders tasks the way columns render: by status, then position
// ascending, then creation time descending for equal positions.
func SortBoard(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Status != b.Status {
			return statusRank[a.Status] < statusRank[b.Status]
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// tailPosition computes the append point for a column: one past the maximum
// position currently visible, or 0 for an empty column. The read and the
// subsequent write are not serialized against concurrent writers; equal
// positions are tolerated and resolved by the SortBoard tie-break.
func (s *Service) tailPosition(ctx context.Context, userID string, status domain.Status) (int, error) {
	max, err := s.store.MaxPosition(ctx, userID, status)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
