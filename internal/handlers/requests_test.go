package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListQueryDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	q, echo := parseListQuery(req)

	assert.Equal(t, "created_at", q.SortField)
	assert.Equal(t, "desc", q.SortDirection)
	assert.Equal(t, 1, q.Page)
	assert.Empty(t, q.Name)
	assert.Empty(t, q.Status)
	assert.Empty(t, echo)
}

func TestParseListQueryEchoesRawParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/projects?name=web&page=3&unrelated=x", nil)
	q, echo := parseListQuery(req)

	assert.Equal(t, "web", q.Name)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, map[string]string{"name": "web", "page": "3", "unrelated": "x"}, echo)
}

func TestParseListQueryIgnoresBadPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/projects?page=banana", nil)
	q, _ := parseListQuery(req)
	assert.Equal(t, 1, q.Page)

	req = httptest.NewRequest(http.MethodGet, "/projects?page=-2", nil)
	q, _ = parseListQuery(req)
	assert.Equal(t, 1, q.Page)
}

func TestParseProjectFormRejectsBadDueDate(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		"name":     "Alpha",
		"status":   "pending",
		"due_date": "June 30th",
	}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/projects", body)
	req.Header.Set("Content-Type", contentType)

	_, fieldErrors, err := parseProjectForm(req, true)
	require.NoError(t, err)
	assert.Contains(t, fieldErrors, "due_date")
}

func TestParseProjectFormPartial(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"description": "only this"}, "", nil)
	req := httptest.NewRequest(http.MethodPut, "/projects/x", body)
	req.Header.Set("Content-Type", contentType)

	form, fieldErrors, err := parseProjectForm(req, false)
	require.NoError(t, err)
	require.Empty(t, fieldErrors)
	assert.Nil(t, form.Name)
	assert.Nil(t, form.Status)
	require.NotNil(t, form.Description)
	assert.Equal(t, "only this", *form.Description)
}
