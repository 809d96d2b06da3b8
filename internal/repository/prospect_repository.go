package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// ProspectRepository persists prospects in PostgreSQL. The service branch is
// stored as a discriminant column plus branch columns and a JSONB completion.
type ProspectRepository struct {
	db *sqlx.DB
}

// NewProspectRepository constructs a ProspectRepository.
func NewProspectRepository(db *sqlx.DB) *ProspectRepository {
	return &ProspectRepository{db: db}
}

type prospectRow struct {
	ID                string                `db:"id"`
	Name              string                `db:"name"`
	Email             *string               `db:"email"`
	Phone             *string               `db:"phone"`
	ContactMethod     models.ContactMethod  `db:"contact_method"`
	DateOfContact     time.Time             `db:"date_of_contact"`
	Notes             string                `db:"notes"`
	Status            models.ProspectStatus `db:"status"`
	ConvertedAt       *time.Time            `db:"converted_at"`
	StudentID         *string               `db:"student_ref"`
	ServiceType       models.ServiceType    `db:"service_interested_in"`
	TrainingLanguages pq.StringArray        `db:"training_languages"`
	SourceLanguage    string                `db:"source_language"`
	TargetLanguage    string                `db:"target_language"`
	Completion        sql.NullString        `db:"completion"`
	models.Attribution
}

const prospectColumns = `id, name, email, phone, contact_method, date_of_contact, notes, status, converted_at, student_ref,
service_interested_in, training_languages, source_language, target_language, completion,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at`

func toProspectRow(p *models.Prospect) (*prospectRow, error) {
	row := &prospectRow{
		ID:                p.ID,
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		ContactMethod:     p.ContactMethod,
		DateOfContact:     p.DateOfContact,
		Notes:             p.Notes,
		Status:            p.Status,
		ConvertedAt:       p.ConvertedAt,
		StudentID:         p.StudentID,
		TrainingLanguages: pq.StringArray{},
		Attribution:       p.Attribution,
	}
	var completion interface{}
	switch v := p.Service.(type) {
	case nil:
	case models.TrainingService:
		row.ServiceType = models.ServiceLanguageTraining
		row.TrainingLanguages = append(row.TrainingLanguages, v.Languages...)
	case models.TranslationService:
		row.ServiceType = models.ServiceDocTranslation
		row.SourceLanguage, row.TargetLanguage = v.Pair.Source, v.Pair.Target
		if v.Completion != nil {
			completion = v.Completion
		}
	case models.InterpretationService:
		row.ServiceType = models.ServiceInterpretation
		row.SourceLanguage, row.TargetLanguage = v.Pair.Source, v.Pair.Target
		if v.Completion != nil {
			completion = v.Completion
		}
	default:
		return nil, fmt.Errorf("unknown service details %T", p.Service)
	}
	if completion != nil {
		raw, err := json.Marshal(completion)
		if err != nil {
			return nil, fmt.Errorf("marshal completion: %w", err)
		}
		row.Completion = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

func (row *prospectRow) toModel() (*models.Prospect, error) {
	service, err := models.NewServiceDetails(row.ServiceType, row.TrainingLanguages,
		models.LanguagePair{Source: row.SourceLanguage, Target: row.TargetLanguage})
	if err != nil {
		return nil, err
	}
	if row.Completion.Valid && row.Completion.String != "" {
		switch v := service.(type) {
		case models.TranslationService:
			var c models.TranslationCompletion
			if err := json.Unmarshal([]byte(row.Completion.String), &c); err != nil {
				return nil, fmt.Errorf("unmarshal translation completion: %w", err)
			}
			v.Completion = &c
			service = v
		case models.InterpretationService:
			var c models.InterpretationCompletion
			if err := json.Unmarshal([]byte(row.Completion.String), &c); err != nil {
				return nil, fmt.Errorf("unmarshal interpretation completion: %w", err)
			}
			v.Completion = &c
			service = v
		}
	}
	return &models.Prospect{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Phone:         row.Phone,
		ContactMethod: row.ContactMethod,
		DateOfContact: row.DateOfContact,
		Notes:         row.Notes,
		Status:        row.Status,
		ConvertedAt:   row.ConvertedAt,
		StudentID:     row.StudentID,
		Service:       service,
		Attribution:   row.Attribution,
	}, nil
}

// Create inserts a prospect.
func (r *ProspectRepository) Create(ctx context.Context, prospect *models.Prospect) error {
	if prospect.ID == "" {
		prospect.ID = uuid.NewString()
	}
	row, err := toProspectRow(prospect)
	if err != nil {
		return err
	}
	const query = `INSERT INTO prospects (id, name, email, phone, contact_method, date_of_contact, notes, status, converted_at, student_ref,
service_interested_in, training_languages, source_language, target_language, completion,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :name, :email, :phone, :contact_method, :date_of_contact, :notes, :status, :converted_at, :student_ref,
:service_interested_in, :training_languages, :source_language, :target_language, :completion,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return classify(err, "create prospect")
	}
	return nil
}

// FindByID fetches a prospect.
func (r *ProspectRepository) FindByID(ctx context.Context, id string) (*models.Prospect, error) {
	var row prospectRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+prospectColumns+" FROM prospects WHERE id = $1", id); err != nil {
		return nil, classify(err, "find prospect")
	}
	return row.toModel()
}

// Update rewrites every mutable column of a prospect.
func (r *ProspectRepository) Update(ctx context.Context, prospect *models.Prospect) error {
	row, err := toProspectRow(prospect)
	if err != nil {
		return err
	}
	const query = `UPDATE prospects SET name = :name, email = :email, phone = :phone, contact_method = :contact_method,
date_of_contact = :date_of_contact, notes = :notes, status = :status, converted_at = :converted_at, student_ref = :student_ref,
service_interested_in = :service_interested_in, training_languages = :training_languages, source_language = :source_language,
target_language = :target_language, completion = :completion, updated_by = :updated_by, updated_by_name = :updated_by_name,
updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return classify(err, "update prospect")
	}
	return affected(res, "update prospect")
}

// MarkConverted writes the conversion only while the stored prospect is still
// Inquired.
func (r *ProspectRepository) MarkConverted(ctx context.Context, prospect *models.Prospect) error {
	row, err := toProspectRow(prospect)
	if err != nil {
		return err
	}
	const query = `UPDATE prospects SET status = :status, converted_at = :converted_at, student_ref = :student_ref,
completion = :completion, updated_by = :updated_by, updated_by_name = :updated_by_name, updated_at = :updated_at
WHERE id = :id AND status = 'Inquired'`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return classify(err, "mark prospect converted")
	}
	return guarded(ctx, r.db, res, "mark prospect converted", "prospects", prospect.ID)
}

// Delete removes a prospect and its follow-ups in one transaction.
func (r *ProspectRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete prospect: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM follow_ups WHERE prospect_id = $1", id); err != nil {
		return classify(err, "delete prospect follow-ups")
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM prospects WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete prospect")
	}
	if err = affected(res, "delete prospect"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete prospect: %w", err)
	}
	return nil
}

// Search lists prospects matching the filter, newest history date first.
func (r *ProspectRepository) Search(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error) {
	const historyDate = "COALESCE(converted_at, date_of_contact)"
	var conds conditions
	if filter.ContactMethod != "" {
		conds.add("contact_method = $%d", filter.ContactMethod)
	}
	if filter.ServiceType != "" {
		conds.add("service_interested_in = $%d", filter.ServiceType)
	}
	if filter.Status != "" {
		conds.add("status = $%d", filter.Status)
	}
	conds.search(filter.Search, "name", "email", "phone", "notes")
	if !conds.window(historyDate, filter.Window, filter.Custom, filter.Now) {
		return []models.Prospect{}, nil
	}

	query := "SELECT " + prospectColumns + " FROM prospects" + conds.where() + " ORDER BY " + historyDate + " DESC, id"
	var rows []prospectRow
	if err := r.db.SelectContext(ctx, &rows, query, conds.args...); err != nil {
		return nil, classify(err, "search prospects")
	}
	out := make([]models.Prospect, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
