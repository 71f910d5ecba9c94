package models

import (
	"time"

	"github.com/google/uuid"
)

// Task belongs to exactly one project. Tasks are read-only from this
// service's point of view; their lifecycle is managed elsewhere.
type Task struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
