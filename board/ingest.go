package board

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"noteboard-api/domain"
)

// IngestResult reports what a bulk ingestion created, in creation order.
type IngestResult struct {
	CreatedCount int           `json:"createdCount"`
	Tasks        []domain.Task `json:"tasks"`
}

// Ingest persists caller-approved candidate items as tasks attached to the
// given note. All items enter the todo column in caller order, appended
// strictly after every todo task visible when the batch starts. The batch is
// not transactional: tasks created before a mid-batch store failure stay
// committed and are reported alongside the error.
func (s *Service) Ingest(ctx context.Context, userID, noteID string, items []domain.CandidateItem) (IngestResult, error) {
	if len(items) == 0 {
		return IngestResult{}, domain.NewValidationError("approved items must not be empty")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return IngestResult{}, domain.NewValidationError("item %d: %v", i, err)
		}
	}

	if _, err := s.store.GetNote(ctx, userID, noteID); err != nil {
		return IngestResult{}, err
	}

	tail, err := s.tailPosition(ctx, userID, domain.StatusTodo)
	if err != nil {
		return IngestResult{}, err
	}

	now := s.now()
	created := make([]domain.Task, 0, len(items))
	for _, item := range items {
		priority := item.Priority
		if priority == "" {
			priority = domain.PriorityMedium
		}
		task := domain.Task{
			ID:          s.newID(),
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Priority:    priority,
			Status:      domain.StatusTodo,
			DueDate:     item.DueDate,
			Position:    tail,
			NoteID:      noteID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.InsertTask(ctx, userID, task); err != nil {
			return IngestResult{CreatedCount: len(created), Tasks: created},
				fmt.Errorf("ingest item %d of %d: %w", len(created), len(items), err)
		}
		created = append(created, task)
		tail++
	}

	if s.logger != nil {
		s.logger.WithFields(log.Fields{
			"note_id": noteID,
			"created": len(created),
		}).Info("board.ingest")
	}
	return IngestResult{CreatedCount: len(created), Tasks: created}, nil
}
