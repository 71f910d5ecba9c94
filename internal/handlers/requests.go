package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"project-tracker/backend/internal/store"
)

const maxUploadSize = 10 << 20 // 10 MiB

// listQuery is the parsed filter/sort/page portion of a listing request,
// with defaults already applied.
type listQuery struct {
	Name          string
	Status        string
	SortField     string
	SortDirection string
	Page          int
}

func (q listQuery) filter() store.Filter {
	return store.Filter{
		Name:          q.Name,
		Status:        q.Status,
		SortField:     q.SortField,
		SortDirection: q.SortDirection,
		Page:          q.Page,
	}
}

// parseListQuery reads the listing parameters and echoes the raw query
// string as a map for the client to rebuild its filter controls from.
func parseListQuery(r *http.Request) (listQuery, map[string]string) {
	values := r.URL.Query()
	echo := make(map[string]string, len(values))
	for key := range values {
		echo[key] = values.Get(key)
	}

	q := listQuery{SortField: "created_at", SortDirection: "desc", Page: 1}
	q.Name = values.Get("name")
	q.Status = values.Get("status")
	if v := values.Get("sort_field"); v != "" {
		q.SortField = v
	}
	if v := values.Get("sort_direction"); v != "" {
		q.SortDirection = v
	}
	if v := values.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			q.Page = page
		}
	}
	return q, echo
}

// projectForm holds the validated multipart payload of a create or update.
// Nil fields were absent from the request.
type projectForm struct {
	Name        *string
	Status      *string
	Description *string
	DueDate     *time.Time
	Image       multipart.File
	ImageName   string
}

func (f *projectForm) Close() {
	if f.Image != nil {
		f.Image.Close()
	}
}

// parseProjectForm validates the payload before the handler body runs.
// With required set, missing name or status is a field error; updates pass
// required=false and get partial semantics instead.
func parseProjectForm(r *http.Request, required bool) (*projectForm, map[string]string, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, err
	}

	form := &projectForm{}
	fieldErrors := make(map[string]string)

	if v, ok := formValue(r, "name"); ok {
		if v == "" {
			fieldErrors["name"] = "The name field must not be empty"
		} else {
			form.Name = &v
		}
	} else if required {
		fieldErrors["name"] = "The name field is required"
	}

	if v, ok := formValue(r, "status"); ok {
		if v == "" {
			fieldErrors["status"] = "The status field must not be empty"
		} else {
			form.Status = &v
		}
	} else if required {
		fieldErrors["status"] = "The status field is required"
	}

	if v, ok := formValue(r, "description"); ok {
		form.Description = &v
	}

	if v, ok := formValue(r, "due_date"); ok && v != "" {
		due, err := time.Parse(dateLayout, v)
		if err != nil {
			fieldErrors["due_date"] = "The due date must be a valid date"
		} else {
			form.DueDate = &due
		}
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		form.Image = file
		form.ImageName = header.Filename
	case errors.Is(err, http.ErrMissingFile):
		// No upload; fine for both create and update.
	default:
		return nil, nil, err
	}

	if len(fieldErrors) > 0 {
		form.Close()
		return nil, fieldErrors, nil
	}
	return form, nil, nil
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
