package handlers

import (
	"github.com/google/uuid"
	"project-tracker/backend/internal/models"
)

// ProjectResource is the client-facing projection of a project row. Dates
// are formatted, and the stored image key is supplemented with the URL it
// is served under.
type ProjectResource struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Description *string    `json:"description"`
	DueDate     *string    `json:"dueDate"`
	ImagePath   *string    `json:"imagePath"`
	ImageURL    *string    `json:"imageUrl"`
	CreatedBy   *uuid.UUID `json:"createdBy"`
	UpdatedBy   *uuid.UUID `json:"updatedBy"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

type TaskResource struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

const dateLayout = "2006-01-02"
const timestampLayout = "2006-01-02 15:04:05"

func newProjectResource(p *models.Project) ProjectResource {
	res := ProjectResource{
		ID:          p.ID,
		Name:        p.Name,
		Status:      p.Status,
		Description: p.Description,
		ImagePath:   p.ImagePath,
		CreatedBy:   p.CreatedBy,
		UpdatedBy:   p.UpdatedBy,
		CreatedAt:   p.CreatedAt.Format(timestampLayout),
		UpdatedAt:   p.UpdatedAt.Format(timestampLayout),
	}
	if p.DueDate != nil {
		due := p.DueDate.Format(dateLayout)
		res.DueDate = &due
	}
	if p.ImagePath != nil {
		url := "/storage/" + *p.ImagePath
		res.ImageURL = &url
	}
	return res
}

func projectCollection(projects []models.Project) []ProjectResource {
	out := make([]ProjectResource, 0, len(projects))
	for i := range projects {
		out = append(out, newProjectResource(&projects[i]))
	}
	return out
}

func newTaskResource(t *models.Task) TaskResource {
	return TaskResource{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Name:      t.Name,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.Format(timestampLayout),
		UpdatedAt: t.UpdatedAt.Format(timestampLayout),
	}
}

func taskCollection(tasks []models.Task) []TaskResource {
	out := make([]TaskResource, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskResource(&tasks[i]))
	}
	return out
}
