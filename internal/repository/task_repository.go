package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

const attributionColumns = "created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at"

// FollowUpRepository persists prospect follow-ups.
type FollowUpRepository struct {
	db *sqlx.DB
}

// NewFollowUpRepository constructs a FollowUpRepository.
func NewFollowUpRepository(db *sqlx.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

const followUpColumns = "id, prospect_id, due_date, assignee, notes, status, outcome, completed_at, " + attributionColumns

// Create inserts a follow-up.
func (r *FollowUpRepository) Create(ctx context.Context, followUp *models.FollowUpAction) error {
	if followUp.ID == "" {
		followUp.ID = uuid.NewString()
	}
	const query = `INSERT INTO follow_ups (id, prospect_id, due_date, assignee, notes, status, outcome, completed_at,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :prospect_id, :due_date, :assignee, :notes, :status, :outcome, :completed_at,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, followUp); err != nil {
		return classify(err, "create follow-up")
	}
	return nil
}

// FindByID fetches a follow-up.
func (r *FollowUpRepository) FindByID(ctx context.Context, id string) (*models.FollowUpAction, error) {
	var f models.FollowUpAction
	if err := r.db.GetContext(ctx, &f, "SELECT "+followUpColumns+" FROM follow_ups WHERE id = $1", id); err != nil {
		return nil, classify(err, "find follow-up")
	}
	return &f, nil
}

// Update rewrites a follow-up that is still pending.
func (r *FollowUpRepository) Update(ctx context.Context, followUp *models.FollowUpAction) error {
	const query = `UPDATE follow_ups SET due_date = :due_date, assignee = :assignee, notes = :notes, status = :status,
outcome = :outcome, completed_at = :completed_at, updated_by = :updated_by, updated_by_name = :updated_by_name,
updated_at = :updated_at WHERE id = :id AND status = 'Pending'`
	res, err := r.db.NamedExecContext(ctx, query, followUp)
	if err != nil {
		return classify(err, "update follow-up")
	}
	return guarded(ctx, r.db, res, "update follow-up", "follow_ups", followUp.ID)
}

// Delete removes a follow-up.
func (r *FollowUpRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM follow_ups WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete follow-up")
	}
	return affected(res, "delete follow-up")
}

// List returns follow-ups ordered by due date.
func (r *FollowUpRepository) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUpAction, error) {
	var conds conditions
	if filter.ProspectID != "" {
		conds.add("prospect_id = $%d", filter.ProspectID)
	}
	if filter.Status != "" {
		conds.add("status = $%d", filter.Status)
	}
	if filter.Assignee != "" {
		conds.add("assignee = $%d", filter.Assignee)
	}
	items := []models.FollowUpAction{}
	query := "SELECT " + followUpColumns + " FROM follow_ups" + conds.where() + " ORDER BY due_date, id"
	if err := r.db.SelectContext(ctx, &items, query, conds.args...); err != nil {
		return nil, classify(err, "list follow-ups")
	}
	return items, nil
}

// CommunicationRepository persists team communications.
type CommunicationRepository struct {
	db *sqlx.DB
}

// NewCommunicationRepository constructs a CommunicationRepository.
func NewCommunicationRepository(db *sqlx.DB) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

const communicationColumns = "id, title, description, due_date, assignee, notes, priority, status, outcome, completed_at, " + attributionColumns

// Create inserts a communication.
func (r *CommunicationRepository) Create(ctx context.Context, communication *models.Communication) error {
	if communication.ID == "" {
		communication.ID = uuid.NewString()
	}
	const query = `INSERT INTO communications (id, title, description, due_date, assignee, notes, priority, status, outcome, completed_at,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :title, :description, :due_date, :assignee, :notes, :priority, :status, :outcome, :completed_at,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, communication); err != nil {
		return classify(err, "create communication")
	}
	return nil
}

// FindByID fetches a communication.
func (r *CommunicationRepository) FindByID(ctx context.Context, id string) (*models.Communication, error) {
	var c models.Communication
	if err := r.db.GetContext(ctx, &c, "SELECT "+communicationColumns+" FROM communications WHERE id = $1", id); err != nil {
		return nil, classify(err, "find communication")
	}
	return &c, nil
}

// Update rewrites a communication that is still pending.
func (r *CommunicationRepository) Update(ctx context.Context, communication *models.Communication) error {
	const query = `UPDATE communications SET title = :title, description = :description, due_date = :due_date, assignee = :assignee,
notes = :notes, priority = :priority, status = :status, outcome = :outcome, completed_at = :completed_at,
updated_by = :updated_by, updated_by_name = :updated_by_name, updated_at = :updated_at WHERE id = :id AND status = 'Pending'`
	res, err := r.db.NamedExecContext(ctx, query, communication)
	if err != nil {
		return classify(err, "update communication")
	}
	return guarded(ctx, r.db, res, "update communication", "communications", communication.ID)
}

// Delete removes a communication.
func (r *CommunicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM communications WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete communication")
	}
	return affected(res, "delete communication")
}

// List returns communications ordered by due date.
func (r *CommunicationRepository) List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, error) {
	var conds conditions
	if filter.Status != "" {
		conds.add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		conds.add("priority = $%d", filter.Priority)
	}
	if filter.Assignee != "" {
		conds.add("assignee = $%d", filter.Assignee)
	}
	conds.search(filter.Search, "title", "description", "notes")
	items := []models.Communication{}
	query := "SELECT " + communicationColumns + " FROM communications" + conds.where() + " ORDER BY due_date, id"
	if err := r.db.SelectContext(ctx, &items, query, conds.args...); err != nil {
		return nil, classify(err, "list communications")
	}
	return items, nil
}
