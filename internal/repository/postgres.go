package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// NewPostgresStore wires every sqlx repository over one connection pool.
func NewPostgresStore(db *sqlx.DB) Store {
	return Store{
		Prospects:      NewProspectRepository(db),
		Students:       NewStudentRepository(db),
		Classes:        NewClassRepository(db),
		FollowUps:      NewFollowUpRepository(db),
		Communications: NewCommunicationRepository(db),
		Payments:       NewPaymentRepository(db),
		Expenditures:   NewExpenditureRepository(db),
		Sequences:      NewSequenceRepository(db),
		ReportJobs:     NewReportRepository(db),
	}
}

const uniqueViolation = "23505"

// classify turns driver errors into contract sentinels.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected maps a zero-row write to ErrNotFound.
func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// lockRoster serialises roster writes and student deletes for one student
// until the transaction ends.
func lockRoster(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "roster:"+studentID); err != nil {
		return classify(err, "lock roster")
	}
	return nil
}

// guarded maps a zero-row conditional write to ErrNotFound or ErrStale.
func guarded(ctx context.Context, db sqlx.QueryerContext, res sql.Result, op, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return staleOrMissing(ctx, db, table, id)
	}
	return nil
}

// staleOrMissing explains a conditional write that matched no row.
func staleOrMissing(ctx context.Context, db sqlx.QueryerContext, table, id string) error {
	var one int
	if err := sqlx.GetContext(ctx, db, &one, "SELECT 1 FROM "+table+" WHERE id = $1", id); err != nil {
		return classify(err, "check "+table)
	}
	return ErrStale
}

// conditions accumulates a WHERE clause with positional arguments.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(format string, value interface{}) {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

// search matches term case-insensitively against each column.
func (c *conditions) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	c.args = append(c.args, "%"+strings.ToLower(term)+"%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE $%d", col, len(c.args))
	}
	c.clauses = append(c.clauses, "("+strings.Join(parts, " OR ")+")")
}

// window bounds column by the interval; ok=false means nothing can match.
func (c *conditions) window(column string, w timewindow.Window, custom *timewindow.Range, now time.Time) bool {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	interval := timewindow.Current(w, custom, now)
	if interval.Empty {
		return false
	}
	if !interval.From.IsZero() {
		c.add(column+" >= $%d", interval.From)
	}
	if !interval.To.IsZero() {
		c.add(column+" <= $%d", interval.To)
	}
	return true
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}
