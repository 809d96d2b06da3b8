package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// PaymentRepository persists payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = "id, client_id, amount, currency, date, method, reference, notes, balance, " + attributionColumns

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	const query = `INSERT INTO payments (id, client_id, amount, currency, date, method, reference, notes, balance,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :client_id, :amount, :currency, :date, :method, :reference, :notes, :balance,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return classify(err, "create payment")
	}
	return nil
}

// FindByID fetches a payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE id = $1", id); err != nil {
		return nil, classify(err, "find payment")
	}
	return &p, nil
}

// Update rewrites a payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	const query = `UPDATE payments SET client_id = :client_id, amount = :amount, currency = :currency, date = :date, method = :method,
reference = :reference, notes = :notes, balance = :balance, updated_by = :updated_by, updated_by_name = :updated_by_name,
updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, payment)
	if err != nil {
		return classify(err, "update payment")
	}
	return affected(res, "update payment")
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete payment")
	}
	return affected(res, "delete payment")
}

// Search returns payments newest first.
func (r *PaymentRepository) Search(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	var conds conditions
	if filter.ClientID != "" {
		conds.add("client_id = $%d", filter.ClientID)
	}
	if filter.Currency != "" {
		conds.add("currency = $%d", filter.Currency)
	}
	if filter.Method != "" {
		conds.add("method = $%d", filter.Method)
	}
	conds.search(filter.Search, "reference", "notes", "client_id")
	items := []models.Payment{}
	if !conds.window("date", filter.Window, filter.Custom, filter.Now) {
		return items, nil
	}
	query := "SELECT " + paymentColumns + " FROM payments" + conds.where() + " ORDER BY date DESC, created_at DESC"
	if err := r.db.SelectContext(ctx, &items, query, conds.args...); err != nil {
		return nil, classify(err, "search payments")
	}
	return items, nil
}

// ExpenditureRepository persists expenditures.
type ExpenditureRepository struct {
	db *sqlx.DB
}

// NewExpenditureRepository constructs an ExpenditureRepository.
func NewExpenditureRepository(db *sqlx.DB) *ExpenditureRepository {
	return &ExpenditureRepository{db: db}
}

const expenditureColumns = "id, payee, category, amount, currency, date, method, description, " + attributionColumns

// Create inserts an expenditure.
func (r *ExpenditureRepository) Create(ctx context.Context, expenditure *models.Expenditure) error {
	if expenditure.ID == "" {
		expenditure.ID = uuid.NewString()
	}
	const query = `INSERT INTO expenditures (id, payee, category, amount, currency, date, method, description,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :payee, :category, :amount, :currency, :date, :method, :description,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expenditure); err != nil {
		return classify(err, "create expenditure")
	}
	return nil
}

// FindByID fetches an expenditure.
func (r *ExpenditureRepository) FindByID(ctx context.Context, id string) (*models.Expenditure, error) {
	var e models.Expenditure
	if err := r.db.GetContext(ctx, &e, "SELECT "+expenditureColumns+" FROM expenditures WHERE id = $1", id); err != nil {
		return nil, classify(err, "find expenditure")
	}
	return &e, nil
}

// Update rewrites an expenditure.
func (r *ExpenditureRepository) Update(ctx context.Context, expenditure *models.Expenditure) error {
	const query = `UPDATE expenditures SET payee = :payee, category = :category, amount = :amount, currency = :currency, date = :date,
method = :method, description = :description, updated_by = :updated_by, updated_by_name = :updated_by_name,
updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, expenditure)
	if err != nil {
		return classify(err, "update expenditure")
	}
	return affected(res, "update expenditure")
}

// Delete removes an expenditure.
func (r *ExpenditureRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenditures WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete expenditure")
	}
	return affected(res, "delete expenditure")
}

// Search returns expenditures newest first.
func (r *ExpenditureRepository) Search(ctx context.Context, filter models.ExpenditureFilter) ([]models.Expenditure, error) {
	var conds conditions
	if filter.Category != "" {
		conds.add("category = $%d", filter.Category)
	}
	if filter.Currency != "" {
		conds.add("currency = $%d", filter.Currency)
	}
	if filter.Method != "" {
		conds.add("method = $%d", filter.Method)
	}
	conds.search(filter.Search, "payee", "category", "description")
	items := []models.Expenditure{}
	if !conds.window("date", filter.Window, filter.Custom, filter.Now) {
		return items, nil
	}
	query := "SELECT " + expenditureColumns + " FROM expenditures" + conds.where() + " ORDER BY date DESC, created_at DESC"
	if err := r.db.SelectContext(ctx, &items, query, conds.args...); err != nil {
		return nil, classify(err, "search expenditures")
	}
	return items, nil
}
