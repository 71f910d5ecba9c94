// Package store provides persistence for projects, tasks and users.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"project-tracker/backend/internal/models"
)

// PageSize is the fixed number of rows per listing page.
const PageSize = 10

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Filter narrows and orders a listing. Name is a substring match, Status an
// exact match; empty strings mean no constraint. SortField is handed to the
// database as-is, so an unknown column surfaces as a query error.
type Filter struct {
	Name          string
	Status        string
	SortField     string
	SortDirection string
	Page          int
}

// PageMeta describes the position of a page within the full result set.
type PageMeta struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	Total       int `json:"total"`
	LastPage    int `json:"lastPage"`
}

type ProjectPage struct {
	Projects []models.Project
	Meta     PageMeta
}

type TaskPage struct {
	Tasks []models.Task
	Meta  PageMeta
}

// ProjectChanges carries a partial update. Nil fields are left untouched;
// UpdatedBy is always stamped.
type ProjectChanges struct {
	Name        *string
	Status      *string
	Description *string
	DueDate     *time.Time
	ImagePath   *string
	UpdatedBy   uuid.UUID
}

// ProjectStore is the persistence interface for projects and the read path
// to their tasks.
type ProjectStore interface {
	ListProjects(ctx context.Context, f Filter) (*ProjectPage, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, id uuid.UUID, ch ProjectChanges) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, projectID uuid.UUID, f Filter) (*TaskPage, error)
}

// UserStore is the persistence interface behind registration and login.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
