package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"project-tracker/backend/internal/models"
)

// Postgres implements ProjectStore and UserStore on top of a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const projectColumns = "id, name, status, description, due_date, image_path, created_by, updated_by, created_at, updated_at"

func (s *Postgres) ListProjects(ctx context.Context, f Filter) (*ProjectPage, error) {
	where, args := buildFilter(f, nil)
	orderBy, err := buildOrderBy(f)
	if err != nil {
		return nil, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM projects` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	query := `SELECT ` + projectColumns + ` FROM projects` + where + orderBy + pageClause(f.Page)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.Description, &p.DueDate, &p.ImagePath, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ProjectPage{Projects: projects, Meta: pageMeta(f.Page, total)}, nil
}

func (s *Postgres) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	var p models.Project
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Status, &p.Description, &p.DueDate, &p.ImagePath, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (s *Postgres) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (name, status, description, due_date, image_path, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, query, p.Name, p.Status, p.Description, p.DueDate, p.ImagePath, p.CreatedBy, p.UpdatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateProject(ctx context.Context, id uuid.UUID, ch ProjectChanges) error {
	sets := []string{"updated_at = NOW()", "updated_by = $1"}
	args := []any{ch.UpdatedBy}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if ch.Name != nil {
		addSet("name", *ch.Name)
	}
	if ch.Status != nil {
		addSet("status", *ch.Status)
	}
	if ch.Description != nil {
		addSet("description", *ch.Description)
	}
	if ch.DueDate != nil {
		addSet("due_date", *ch.DueDate)
	}
	if ch.ImagePath != nil {
		addSet("image_path", *ch.ImagePath)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteProject(ctx context.Context, id uuid.UUID) error {
	// Task rows go with the project via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListTasks(ctx context.Context, projectID uuid.UUID, f Filter) (*TaskPage, error) {
	where, args := buildFilter(f, []any{projectID})
	orderBy, err := buildOrderBy(f)
	if err != nil {
		return nil, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT id, project_id, name, status, created_at, updated_at FROM tasks` + where + orderBy + pageClause(f.Page)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &TaskPage{Tasks: tasks, Meta: pageMeta(f.Page, total)}, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, query, u.Username, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = $1`
	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// buildFilter assembles the WHERE clause for a listing. baseArgs holds
// positional conditions that precede the filter, currently only the task
// listing's project id.
func buildFilter(f Filter, baseArgs []any) (string, []any) {
	args := baseArgs
	var conds []string
	if len(baseArgs) == 1 {
		conds = append(conds, "project_id = $1")
	}
	if f.Name != "" {
		args = append(args, f.Name)
		conds = append(conds, fmt.Sprintf("name LIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildOrderBy quotes the requested column and passes it through to the
// database; a column that does not exist fails there, not here.
func buildOrderBy(f Filter) (string, error) {
	dir := strings.ToLower(f.SortDirection)
	if dir != "asc" && dir != "desc" {
		return "", fmt.Errorf("store: invalid sort direction %q", f.SortDirection)
	}
	return " ORDER BY " + pgx.Identifier{f.SortField}.Sanitize() + " " + strings.ToUpper(dir), nil
}

func pageClause(page int) string {
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", PageSize, (page-1)*PageSize)
}

func pageMeta(page, total int) PageMeta {
	if page < 1 {
		page = 1
	}
	lastPage := (total + PageSize - 1) / PageSize
	if lastPage < 1 {
		lastPage = 1
	}
	return PageMeta{CurrentPage: page, PerPage: PageSize, Total: total, LastPage: lastPage}
}
