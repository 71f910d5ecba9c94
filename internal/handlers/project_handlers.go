package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"project-tracker/backend/internal/flash"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/storage"
	"project-tracker/backend/internal/store"
	"project-tracker/backend/internal/ws"
)

// imagePrefix namespaces uploaded project images on the public disk.
const imagePrefix = "project"

// statusOptions are offered to the create/edit forms. The store accepts
// whatever status the client sends; these are display hints, not a
// validation whitelist.
var statusOptions = []string{"pending", "in_progress", "completed"}

// indexPath is where mutating operations redirect back to.
const indexPath = "/api/v1/projects"

// ProjectHandler serves the project resource: listing, forms, create,
// show (with the project's tasks), update and destroy.
type ProjectHandler struct {
	projects store.ProjectStore
	files    storage.Storage
	hub      *ws.Hub
	log      *zap.Logger
}

func NewProjectHandler(projects store.ProjectStore, files storage.Storage, hub *ws.Hub, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, files: files, hub: hub, log: log}
}

// Index lists projects filtered by name substring and status, ordered by
// the requested field and direction, ten per page. The raw query string is
// echoed back, collapsed to null when empty, together with any flash
// message left by a prior mutation.
func (h *ProjectHandler) Index(w http.ResponseWriter, r *http.Request) {
	q, echo := parseListQuery(r)

	page, err := h.projects.ListProjects(r.Context(), q.filter())
	if err != nil {
		h.log.Error("failed to list projects", zap.Error(err))
		http.Error(w, "Failed to retrieve projects", http.StatusInternalServerError)
		return
	}

	var queryParams any
	if len(echo) > 0 {
		queryParams = echo
	}
	var success any
	if msg := flash.Pop(w, r); msg != "" {
		success = msg
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":        projectCollection(page.Projects),
		"meta":        page.Meta,
		"queryParams": queryParams,
		"success":     success,
	})
}

// New returns the static descriptor backing the create form.
func (h *ProjectHandler) New(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses": statusOptions,
	})
}

// Store creates a project from a validated multipart payload, storing the
// optional image first and stamping both audit columns with the caller.
func (h *ProjectHandler) Store(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user ID from context", http.StatusInternalServerError)
		return
	}

	form, fieldErrors, err := parseProjectForm(r, true)
	if err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrors})
		return
	}
	defer form.Close()

	project := &models.Project{
		Name:        *form.Name,
		Status:      *form.Status,
		Description: form.Description,
		DueDate:     form.DueDate,
		CreatedBy:   &userID,
		UpdatedBy:   &userID,
	}

	if form.Image != nil {
		key, err := h.files.Store(form.Image, form.ImageName, imagePrefix)
		if err != nil {
			h.log.Error("failed to store project image", zap.Error(err))
			http.Error(w, "Failed to store image", http.StatusInternalServerError)
			return
		}
		project.ImagePath = &key
	}

	if err := h.projects.CreateProject(r.Context(), project); err != nil {
		h.log.Error("failed to create project", zap.Error(err))
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	h.hub.Publish(ws.Event{Type: ws.EventProjectCreated, ProjectID: project.ID, Name: project.Name})
	h.redirectToIndex(w, r, "Project was created")
}

// Show returns the project with its tasks, the tasks filtered and paged
// under the same contract as Index. The query echo here is always a map,
// even for an empty query string.
func (h *ProjectHandler) Show(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromCtx(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve project from context", http.StatusInternalServerError)
		return
	}

	q, echo := parseListQuery(r)
	tasks, err := h.projects.ListTasks(r.Context(), project.ID, q.filter())
	if err != nil {
		h.log.Error("failed to list tasks", zap.Error(err))
		http.Error(w, "Failed to retrieve tasks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project":     newProjectResource(project),
		"tasks":       taskCollection(tasks.Tasks),
		"meta":        tasks.Meta,
		"queryParams": echo,
	})
}

// Edit returns the project for form pre-population.
func (h *ProjectHandler) Edit(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromCtx(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve project from context", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project":  newProjectResource(project),
		"statuses": statusOptions,
	})
}

// Update applies a partial update. The success message carries the name as
// it was before the mutation. When a new image arrives and an old one is
// recorded, the old blob is deleted before the new one is stored, so a
// successful update never leaves a dangling image key.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromCtx(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve project from context", http.StatusInternalServerError)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user ID from context", http.StatusInternalServerError)
		return
	}

	name := project.Name

	form, fieldErrors, err := parseProjectForm(r, false)
	if err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrors})
		return
	}
	defer form.Close()

	changes := store.ProjectChanges{
		Name:        form.Name,
		Status:      form.Status,
		Description: form.Description,
		DueDate:     form.DueDate,
		UpdatedBy:   userID,
	}

	if form.Image != nil {
		if project.ImagePath != nil {
			if err := h.files.Delete(*project.ImagePath); err != nil {
				h.log.Error("failed to delete old project image", zap.String("key", *project.ImagePath), zap.Error(err))
				http.Error(w, "Failed to replace image", http.StatusInternalServerError)
				return
			}
		}
		key, err := h.files.Store(form.Image, form.ImageName, imagePrefix)
		if err != nil {
			h.log.Error("failed to store project image", zap.Error(err))
			http.Error(w, "Failed to store image", http.StatusInternalServerError)
			return
		}
		changes.ImagePath = &key
	}

	if err := h.projects.UpdateProject(r.Context(), project.ID, changes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to update project", zap.Error(err))
		http.Error(w, "Failed to update project", http.StatusInternalServerError)
		return
	}

	h.hub.Publish(ws.Event{Type: ws.EventProjectUpdated, ProjectID: project.ID, Name: name})
	h.redirectToIndex(w, r, fmt.Sprintf("Project %q was updated", name))
}

// Destroy deletes the project row first, then its image blob if one is
// recorded. A failed blob deletion leaves an orphan on disk; the row is
// already gone and is not restored.
func (h *ProjectHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromCtx(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve project from context", http.StatusInternalServerError)
		return
	}

	name := project.Name

	if err := h.projects.DeleteProject(r.Context(), project.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete project", zap.Error(err))
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}

	if project.ImagePath != nil {
		if err := h.files.Delete(*project.ImagePath); err != nil {
			h.log.Warn("failed to delete project image", zap.String("key", *project.ImagePath), zap.Error(err))
		}
	}

	h.hub.Publish(ws.Event{Type: ws.EventProjectDeleted, ProjectID: project.ID, Name: name})
	h.redirectToIndex(w, r, fmt.Sprintf("Project %q was deleted", name))
}

func (h *ProjectHandler) redirectToIndex(w http.ResponseWriter, r *http.Request, message string) {
	flash.Set(w, message)
	http.Redirect(w, r, indexPath, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do but note it.
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
