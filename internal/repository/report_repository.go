package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// ReportRepository persists export job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportJobColumns = "id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message"

// Create inserts a new report job row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return classify(err, "create report job")
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, "SELECT "+reportJobColumns+" FROM report_jobs WHERE id = $1", id); err != nil {
		return nil, classify(err, "get report job")
	}
	return &job, nil
}

// Update persists the non-nil fields of update.
func (r *ReportRepository) Update(ctx context.Context, id string, update models.ReportJobUpdate) error {
	var sets conditions
	if update.Status != nil {
		sets.add("status = $%d", *update.Status)
	}
	if update.Progress != nil {
		sets.add("progress = $%d", *update.Progress)
	}
	if update.ResultURL != nil {
		sets.add("result_url = $%d", *update.ResultURL)
	}
	if update.ErrorMessage != nil {
		sets.add("error_message = $%d", *update.ErrorMessage)
	}
	if update.FinishedAt != nil {
		sets.add("finished_at = $%d", *update.FinishedAt)
	}
	if len(sets.clauses) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(sets.clauses, ", "), len(sets.args)+1)
	res, err := r.db.ExecContext(ctx, query, append(sets.args, id)...)
	if err != nil {
		return classify(err, "update report job")
	}
	return affected(res, "update report job")
}

// ListQueued fetches queued jobs for cold start recovery.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	jobs := []models.ReportJob{}
	query := "SELECT " + reportJobColumns + " FROM report_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1"
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, classify(err, "list queued report jobs")
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs := []models.ReportJob{}
	query := "SELECT " + reportJobColumns + " FROM report_jobs WHERE status = 'FINISHED' AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2"
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, classify(err, "list finished report jobs")
	}
	return jobs, nil
}
