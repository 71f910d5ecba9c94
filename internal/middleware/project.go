package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/store"
)

const projectKey contextKey = "project"

// ProjectCtx resolves the {projectID} URL parameter to a project before the
// handler body runs. An id that does not parse or does not exist is a 404;
// handlers downstream can assume the project is present.
func ProjectCtx(projects store.ProjectStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "projectID"))
			if err != nil {
				http.Error(w, "Project not found", http.StatusNotFound)
				return
			}

			project, err := projects.GetProject(r.Context(), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					http.Error(w, "Project not found", http.StatusNotFound)
					return
				}
				http.Error(w, "Failed to resolve project", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), projectKey, project)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProjectFromCtx returns the project resolved by ProjectCtx.
func ProjectFromCtx(ctx context.Context) (*models.Project, bool) {
	p, ok := ctx.Value(projectKey).(*models.Project)
	return p, ok
}
