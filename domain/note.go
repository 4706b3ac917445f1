package domain

import "time"

// Note holds raw pasted text a user extracts tasks from. The owner is implied
// by the storage partition; handlers pass the user ID on every call.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
