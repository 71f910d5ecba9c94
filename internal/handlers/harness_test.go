package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"project-tracker/backend/internal/auth"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/store"
	"project-tracker/backend/internal/ws"
)

const testSecret = "test-secret"

// opLog records collaborator calls across the store and the blob storage
// so tests can assert their relative order.
type opLog struct {
	entries []string
}

func (l *opLog) add(entry string) {
	l.entries = append(l.entries, entry)
}

func (l *opLog) indexOf(entry string) int {
	for i, e := range l.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

type mockProjectStore struct {
	projects   map[uuid.UUID]*models.Project
	tasks      map[uuid.UUID][]models.Task
	lastFilter store.Filter
	journal    *opLog
	seedCount  int
}

func newMockProjectStore(journal *opLog) *mockProjectStore {
	return &mockProjectStore{
		projects: make(map[uuid.UUID]*models.Project),
		tasks:    make(map[uuid.UUID][]models.Task),
		journal:  journal,
	}
}

// seed inserts a project with deterministic timestamps so ordering tests
// are stable.
func (m *mockProjectStore) seed(p models.Project) models.Project {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		p.CreatedAt = base.Add(time.Duration(m.seedCount) * time.Minute)
		p.UpdatedAt = p.CreatedAt
	}
	m.seedCount++
	cp := p
	m.projects[p.ID] = &cp
	return p
}

func (m *mockProjectStore) seedTask(projectID uuid.UUID, t models.Task) models.Task {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.ProjectID = projectID
	if t.CreatedAt.IsZero() {
		base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		t.CreatedAt = base.Add(time.Duration(len(m.tasks[projectID])) * time.Minute)
		t.UpdatedAt = t.CreatedAt
	}
	m.tasks[projectID] = append(m.tasks[projectID], t)
	return t
}

func matchesFilter(name, status string, f store.Filter) bool {
	if f.Name != "" && !strings.Contains(name, f.Name) {
		return false
	}
	if f.Status != "" && status != f.Status {
		return false
	}
	return true
}

func sortDirectionValid(f store.Filter) error {
	dir := strings.ToLower(f.SortDirection)
	if dir != "asc" && dir != "desc" {
		return fmt.Errorf("invalid sort direction %q", f.SortDirection)
	}
	return nil
}

func paginate(total, page int) (lo, hi int, meta store.PageMeta) {
	if page < 1 {
		page = 1
	}
	lo = (page - 1) * store.PageSize
	if lo > total {
		lo = total
	}
	hi = lo + store.PageSize
	if hi > total {
		hi = total
	}
	lastPage := (total + store.PageSize - 1) / store.PageSize
	if lastPage < 1 {
		lastPage = 1
	}
	meta = store.PageMeta{CurrentPage: page, PerPage: store.PageSize, Total: total, LastPage: lastPage}
	return lo, hi, meta
}

func (m *mockProjectStore) ListProjects(ctx context.Context, f store.Filter) (*store.ProjectPage, error) {
	m.lastFilter = f
	if err := sortDirectionValid(f); err != nil {
		return nil, err
	}

	var matched []models.Project
	for _, p := range m.projects {
		if matchesFilter(p.Name, p.Status, f) {
			matched = append(matched, *p)
		}
	}

	desc := strings.EqualFold(f.SortDirection, "desc")
	switch f.SortField {
	case "name":
		sort.Slice(matched, func(i, j int) bool {
			if desc {
				return matched[i].Name > matched[j].Name
			}
			return matched[i].Name < matched[j].Name
		})
	case "status":
		sort.Slice(matched, func(i, j int) bool {
			if desc {
				return matched[i].Status > matched[j].Status
			}
			return matched[i].Status < matched[j].Status
		})
	case "created_at":
		sort.Slice(matched, func(i, j int) bool {
			if desc {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		})
	default:
		// What the database would say about an unknown column.
		return nil, fmt.Errorf(`column %q does not exist`, f.SortField)
	}

	lo, hi, meta := paginate(len(matched), f.Page)
	return &store.ProjectPage{Projects: matched[lo:hi], Meta: meta}, nil
}

func (m *mockProjectStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjectStore) CreateProject(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.projects[p.ID] = &cp
	m.journal.add("createProject:" + p.Name)
	return nil
}

func (m *mockProjectStore) UpdateProject(ctx context.Context, id uuid.UUID, ch store.ProjectChanges) error {
	p, ok := m.projects[id]
	if !ok {
		return store.ErrNotFound
	}
	if ch.Name != nil {
		p.Name = *ch.Name
	}
	if ch.Status != nil {
		p.Status = *ch.Status
	}
	if ch.Description != nil {
		p.Description = ch.Description
	}
	if ch.DueDate != nil {
		p.DueDate = ch.DueDate
	}
	if ch.ImagePath != nil {
		p.ImagePath = ch.ImagePath
	}
	updatedBy := ch.UpdatedBy
	p.UpdatedBy = &updatedBy
	p.UpdatedAt = time.Now()
	m.journal.add("updateProject:" + id.String())
	return nil
}

func (m *mockProjectStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.projects, id)
	delete(m.tasks, id)
	m.journal.add("deleteProject:" + id.String())
	return nil
}

func (m *mockProjectStore) ListTasks(ctx context.Context, projectID uuid.UUID, f store.Filter) (*store.TaskPage, error) {
	m.lastFilter = f
	if err := sortDirectionValid(f); err != nil {
		return nil, err
	}

	var matched []models.Task
	for _, t := range m.tasks[projectID] {
		if matchesFilter(t.Name, t.Status, f) {
			matched = append(matched, t)
		}
	}

	desc := strings.EqualFold(f.SortDirection, "desc")
	switch f.SortField {
	case "name":
		sort.Slice(matched, func(i, j int) bool {
			if desc {
				return matched[i].Name > matched[j].Name
			}
			return matched[i].Name < matched[j].Name
		})
	case "created_at":
		sort.Slice(matched, func(i, j int) bool {
			if desc {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		})
	default:
		return nil, fmt.Errorf(`column %q does not exist`, f.SortField)
	}

	lo, hi, meta := paginate(len(matched), f.Page)
	return &store.TaskPage{Tasks: matched[lo:hi], Meta: meta}, nil
}

type fakeStorage struct {
	blobs   map[string][]byte
	journal *opLog
	n       int
}

func newFakeStorage(journal *opLog) *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte), journal: journal}
}

func (f *fakeStorage) Store(file io.Reader, filename, prefix string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.n++
	key := fmt.Sprintf("%s/seg%d/%s", prefix, f.n, filename)
	f.blobs[key] = data
	f.journal.add("storeBlob:" + key)
	return key, nil
}

func (f *fakeStorage) Delete(key string) error {
	if _, ok := f.blobs[key]; !ok {
		return fmt.Errorf("no such blob %q", key)
	}
	delete(f.blobs, key)
	f.journal.add("deleteBlob:" + key)
	return nil
}

type testEnv struct {
	router  http.Handler
	store   *mockProjectStore
	files   *fakeStorage
	journal *opLog
	userID  uuid.UUID
	token   string
}

// newTestEnv wires the project handler behind the same routing and auth
// middleware the server uses.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	journal := &opLog{}
	st := newMockProjectStore(journal)
	files := newFakeStorage(journal)
	hub := ws.NewHub(zap.NewNop())
	h := NewProjectHandler(st, files, hub, zap.NewNop())

	userID := uuid.New()
	token, err := auth.CreateJWT(testSecret, userID.String(), "tester")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/v1/projects", func(r chi.Router) {
		r.Use(middleware.Auth(testSecret))
		r.Get("/", h.Index)
		r.Post("/", h.Store)
		r.Get("/new", h.New)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Use(middleware.ProjectCtx(st))
			r.Get("/", h.Show)
			r.Get("/edit", h.Edit)
			r.Put("/", h.Update)
			r.Delete("/", h.Destroy)
		})
	})

	return &testEnv{router: r, store: st, files: files, journal: journal, userID: userID, token: token}
}

func (e *testEnv) do(t *testing.T, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// flashMessage decodes the one-shot message attached to a redirect.
func flashMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "flash" && c.MaxAge >= 0 {
			decoded, err := base64.URLEncoding.DecodeString(c.Value)
			require.NoError(t, err)
			return string(decoded)
		}
	}
	return ""
}
