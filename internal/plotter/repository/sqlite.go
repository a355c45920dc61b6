package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"plotbot/internal/plotter/models"
)

// ============================================================
// SQLite Job Repository
// ============================================================

var ErrNotFound = errors.New("job not found")

// время хранится текстом UTC фиксированной ширины, сортировка лексическая
const timeLayout = "2006-01-02 15:04:05.000000"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init запускает миграции
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping проверяет доступность БД
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create сохраняет новое задание в очереди и возвращает его с новым id
func (r *Repository) Create(ctx context.Context, mode models.PrintMode, polylines int) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.NewString(),
		Mode:      mode,
		Polylines: polylines,
		Status:    models.JobQueued,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO jobs (id, mode, polylines, status, prints, created_at)
        VALUES (?, ?, ?, ?, 0, ?)
    `, job.ID, string(job.Mode), job.Polylines, string(job.Status), job.CreatedAt.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// MarkPrinted учитывает одну завершённую печать задания
func (r *Repository) MarkPrinted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE jobs
        SET status = ?, prints = prints + 1, printed_at = ?
        WHERE id = ?
    `, string(models.JobPrinted), r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get возвращает задание по id или ErrNotFound
func (r *Repository) Get(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, mode, polylines, status, prints, created_at, printed_at
        FROM jobs
        WHERE id = ?
    `, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, err
}

// Recent возвращает до limit заданий, новые первыми
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, mode, polylines, status, prints, created_at, printed_at
        FROM jobs
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*models.Job, error) {
	var (
		job       models.Job
		mode      string
		status    string
		createdAt string
		printedAt sql.NullString
	)
	if err := s.Scan(&job.ID, &mode, &job.Polylines, &status, &job.Prints, &createdAt, &printedAt); err != nil {
		return nil, err
	}
	job.Mode = models.PrintMode(mode)
	job.Status = models.JobStatus(status)

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	job.CreatedAt = t
	if printedAt.Valid {
		t, err := time.Parse(timeLayout, printedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse printed_at: %w", err)
		}
		job.PrintedAt = &t
	}
	return &job, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
