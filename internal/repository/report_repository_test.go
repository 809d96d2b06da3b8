package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

var reportColumnNames = []string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), "payments", sqlmock.AnyArg(), "QUEUED", 0, nil, "user-1", sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportJob{
		Type:      models.ReportTypePayments,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV, Window: timewindow.Last1m},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.Equal(t, models.ReportStatusQueued, job.Status)

	rows := sqlmock.NewRows(reportColumnNames).
		AddRow(job.ID, "payments", `{"format":"csv","window":"1m","currency":"RWF"}`, "QUEUED", 0, nil, "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).WithArgs(job.ID).WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, timewindow.Last1m, fetched.Params.Window)
	assert.Equal(t, models.CurrencyRWF, fetched.Params.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateSetsOnlyProvidedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs("FINISHED", progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", models.ReportJobUpdate{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateMissingJob(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	progress := 10
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET progress = $1 WHERE id = $2")).
		WithArgs(progress, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "gone", models.ReportJobUpdate{Progress: &progress})
	assert.True(t, IsNotFound(err))
}

func TestReportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	finished := cutoff.Add(-time.Hour)
	url := "/exports/a.csv"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'FINISHED' AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2")).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(reportColumnNames).
			AddRow("job-1", "expenditures", `{"format":"pdf","window":"all"}`, "FINISHED", 100, url, "user-1", finished, finished, nil))

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReportFormatPDF, jobs[0].Params.Format)
	assert.Equal(t, url, *jobs[0].ResultURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}
