package board

import (
	"context"
	"strings"

	"noteboard-api/domain"
)

// NoteInput carries the fields of a note create or edit.
type NoteInput struct {
	Title string
	Body  string
}

// CreateNote stores a new note.
func (s *Service) CreateNote(ctx context.Context, userID string, in NoteInput) (domain.Note, error) {
	if strings.TrimSpace(in.Body) == "" {
		return domain.Note{}, domain.NewValidationError("note body must not be empty")
	}
	now := s.now()
	note := domain.Note{
		ID:        s.newID(),
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertNote(ctx, userID, note); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

// GetNote loads one note from the user's partition.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (domain.Note, error) {
	return s.store.GetNote(ctx, userID, noteID)
}

// ListNotes returns all of the user's notes.
func (s *Service) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	return s.store.ListNotes(ctx, userID)
}

// UpdateNote replaces a note's title and body.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, in NoteInput) (domain.Note, error) {
	if strings.TrimSpace(in.Body) == "" {
		return domain.Note{}, domain.NewValidationError("note body must not be empty")
	}
	note, err := s.store.GetNote(ctx, userID, noteID)
	if err != nil {
		return domain.Note{}, err
	}
	note.Title = strings.TrimSpace(in.Title)
	note.Body = in.Body
	note.UpdatedAt = s.now()
	if err := s.store.UpdateNote(ctx, userID, note); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

// DeleteNote removes a note and detaches any tasks created from it. The
// tasks themselves stay on the board.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.store.DeleteNote(ctx, userID, noteID); err != nil {
		return err
	}
	return s.store.DetachTasks(ctx, userID, noteID)
}
