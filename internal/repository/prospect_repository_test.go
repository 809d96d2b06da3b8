package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

var prospectColumnNames = []string{"id", "name", "email", "phone", "contact_method", "date_of_contact", "notes", "status", "converted_at", "student_ref",
	"service_interested_in", "training_languages", "source_language", "target_language", "completion",
	"created_by", "created_by_name", "created_at", "updated_by", "updated_by_name", "updated_at"}

func TestProspectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO prospects")).
		WithArgs(anyArgs(21)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Prospect{
		Name:    "Ada",
		Status:  models.ProspectInquired,
		Service: models.TranslationService{Pair: models.LanguagePair{Source: "English", Target: "French"}},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryFindByIDRebuildsServiceBranch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	now := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
	completion := `{"completedAt":"2024-05-02T00:00:00Z","documentTitle":"Contract X","pages":10,"ratePerPage":"5000","totalFee":"50000"}`
	rows := sqlmock.NewRows(prospectColumnNames).
		AddRow("p1", "Ada", nil, nil, "Email", now, "", "Converted", now, nil,
			"DocTranslation", "{}", "English", "French", completion,
			"u1", "User", now, "u1", "User", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM prospects WHERE id = $1")).WithArgs("p1").WillReturnRows(rows)

	p, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	translation, ok := p.Service.(models.TranslationService)
	require.True(t, ok)
	assert.Equal(t, "French", translation.Pair.Target)
	require.NotNil(t, translation.Completion)
	assert.True(t, translation.Completion.TotalFee.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "User", p.CreatedByName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM prospects WHERE id = $1")).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(prospectColumnNames))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestProspectRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE prospects SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Prospect{ID: "missing", Service: models.TrainingService{Languages: []string{"French"}}})
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryMarkConvertedGuardsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)
	prospect := &models.Prospect{ID: "p1", Status: models.ProspectConverted, Service: models.TrainingService{Languages: []string{"French"}}}

	mock.ExpectExec(`(?s)UPDATE prospects SET status = \?, .* WHERE id = \? AND status = 'Inquired'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM prospects WHERE id = $1")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err := repo.MarkConverted(context.Background(), prospect)
	assert.True(t, IsStale(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryMarkConvertedMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("AND status = 'Inquired'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM prospects WHERE id = $1")).WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err := repo.MarkConverted(context.Background(), &models.Prospect{ID: "gone", Service: models.TrainingService{Languages: []string{"French"}}})
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryDeleteCascadesInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM follow_ups WHERE prospect_id = $1")).WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prospects WHERE id = $1")).WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositoryDeleteMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM follow_ups")).WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prospects")).WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "gone")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProspectRepositorySearchBuildsWindowedQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProspectRepository(db)

	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM prospects WHERE service_interested_in = $1 AND status = $2 AND COALESCE(converted_at, date_of_contact) >= $3 ORDER BY COALESCE(converted_at, date_of_contact) DESC, id")).
		WithArgs("DocTranslation", "Inquired", now.AddDate(0, 0, -7)).
		WillReturnRows(sqlmock.NewRows(prospectColumnNames).
			AddRow("p1", "Ada", nil, nil, "Email", now, "", "Inquired", nil, nil,
				"DocTranslation", "{}", "English", "French", nil,
				"u1", "User", now, "u1", "User", now))

	items, err := repo.Search(context.Background(), models.ProspectFilter{
		ServiceType: models.ServiceDocTranslation,
		Status:      models.ProspectInquired,
		Window:      timewindow.Last7d,
		Now:         now,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ServiceDocTranslation, items[0].ServiceType())
	assert.NoError(t, mock.ExpectationsWereMet())
}
