package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// ClassRepository manages persistence for classes. Rosters live in the
// classes.student_ids text[] column.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

type scheduleColumn []models.ScheduleSession

func (s scheduleColumn) Value() (driver.Value, error) {
	if s == nil {
		s = scheduleColumn{}
	}
	data, err := json.Marshal([]models.ScheduleSession(s))
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	return data, nil
}

func (s *scheduleColumn) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = scheduleColumn{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for schedule", value)
	}
	var sessions []models.ScheduleSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("unmarshal schedule: %w", err)
	}
	*s = sessions
	return nil
}

type classRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Language   string         `db:"language"`
	Level      models.Level   `db:"level"`
	TeacherID  string         `db:"teacher_id"`
	Schedule   scheduleColumn `db:"schedule"`
	StudentIDs pq.StringArray `db:"student_ids"`
	models.Attribution
}

func (row classRow) toModel() models.Class {
	return models.Class{
		ID:          row.ID,
		Name:        row.Name,
		Language:    row.Language,
		Level:       row.Level,
		TeacherID:   row.TeacherID,
		Schedule:    []models.ScheduleSession(row.Schedule),
		StudentIDs:  append([]string{}, row.StudentIDs...),
		Attribution: row.Attribution,
	}
}

func toClassRow(c *models.Class) classRow {
	return classRow{
		ID:          c.ID,
		Name:        c.Name,
		Language:    c.Language,
		Level:       c.Level,
		TeacherID:   c.TeacherID,
		Schedule:    scheduleColumn(c.Schedule),
		StudentIDs:  append(pq.StringArray{}, c.StudentIDs...),
		Attribution: c.Attribution,
	}
}

const classColumns = `id, name, language, level, teacher_id, schedule, student_ids,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at`

// Create inserts a class with its initial roster.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	const query = `INSERT INTO classes (id, name, language, level, teacher_id, schedule, student_ids,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :name, :language, :level, :teacher_id, :schedule, :student_ids,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, toClassRow(class)); err != nil {
		return classify(err, "create class")
	}
	return nil
}

// FindByID fetches a class with its roster.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var row classRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+classColumns+" FROM classes WHERE id = $1", id); err != nil {
		return nil, classify(err, "find class")
	}
	class := row.toModel()
	return &class, nil
}

// Update rewrites class details; student_ids is left alone.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	const query = `UPDATE classes SET name = :name, language = :language, level = :level, teacher_id = :teacher_id,
schedule = :schedule, updated_by = :updated_by, updated_by_name = :updated_by_name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, toClassRow(class))
	if err != nil {
		return classify(err, "update class")
	}
	return affected(res, "update class")
}

// Delete removes a class and with it the class's roster.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete class")
	}
	return affected(res, "delete class")
}

// List returns classes ordered by name.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error) {
	var conds conditions
	if filter.Language != "" {
		conds.add("LOWER(language) = LOWER($%d)", filter.Language)
	}
	if filter.Level != "" {
		conds.add("level = $%d", filter.Level)
	}
	if filter.TeacherID != "" {
		conds.add("teacher_id = $%d", filter.TeacherID)
	}
	conds.search(filter.Search, "name", "language")
	return r.selectClasses(ctx, "SELECT "+classColumns+" FROM classes"+conds.where()+" ORDER BY name, id", conds.args...)
}

// ListByStudent returns the classes whose roster contains the student.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	return r.selectClasses(ctx, "SELECT "+classColumns+" FROM classes WHERE $1 = ANY(student_ids) ORDER BY name, id", studentID)
}

func (r *ClassRepository) selectClasses(ctx context.Context, query string, args ...interface{}) ([]models.Class, error) {
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list classes")
	}
	out := make([]models.Class, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

type rosterRow struct {
	ID         string         `db:"id"`
	StudentIDs pq.StringArray `db:"student_ids"`
}

// ApplyRosterDelta locks the student and every affected class, verifies they
// all exist, then applies idempotent array_append/array_remove updates in one
// transaction.
func (r *ClassRepository) ApplyRosterDelta(ctx context.Context, studentID string, add, remove []string, actor models.Actor) (err error) {
	touched := append(append([]string{}, add...), remove...)
	if len(touched) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err, "begin roster delta")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockStudent(ctx, tx, studentID); err != nil {
		return err
	}
	var locked []string
	if err = tx.SelectContext(ctx, &locked, "SELECT id FROM classes WHERE id = ANY($1) ORDER BY id FOR UPDATE", pq.Array(touched)); err != nil {
		return classify(err, "lock classes")
	}
	if len(locked) != countDistinct(touched) {
		err = ErrNotFound
		return err
	}
	if err = writeDelta(ctx, tx, studentID, add, remove, actor); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return classify(err, "commit roster delta")
	}
	return nil
}

// SetStudentClasses reads the student's current classes, diffs them against
// target and writes the delta inside one transaction.
func (r *ClassRepository) SetStudentClasses(ctx context.Context, studentID string, target []string, actor models.Actor) (change *models.EnrollmentChange, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify(err, "begin set enrollments")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockStudent(ctx, tx, studentID); err != nil {
		return nil, err
	}
	var rows []rosterRow
	const query = `SELECT id, student_ids FROM classes WHERE $1 = ANY(student_ids) OR id = ANY($2) ORDER BY id FOR UPDATE`
	if err = tx.SelectContext(ctx, &rows, query, studentID, pq.Array(target)); err != nil {
		return nil, classify(err, "lock classes")
	}
	found := make(map[string]struct{}, len(rows))
	current := make([]string, 0, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
		for _, id := range row.StudentIDs {
			if id == studentID {
				current = append(current, row.ID)
				break
			}
		}
	}
	for _, id := range target {
		if _, ok := found[id]; !ok {
			err = fmt.Errorf("class %s: %w", id, ErrNotFound)
			return nil, err
		}
	}

	add, remove := models.DiffEnrollments(current, target)
	change = &models.EnrollmentChange{StudentID: studentID, Added: add, Removed: remove, ClassIDs: target}
	if err = writeDelta(ctx, tx, studentID, add, remove, actor); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, classify(err, "commit set enrollments")
	}
	return change, nil
}

// lockStudent takes the roster lock and holds the student row against delete.
func lockStudent(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	if err := lockRoster(ctx, tx, studentID); err != nil {
		return err
	}
	var one int
	if err := tx.GetContext(ctx, &one, "SELECT 1 FROM students WHERE id = $1 FOR SHARE", studentID); err != nil {
		if err = classify(err, "lock student"); IsNotFound(err) {
			return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
		}
		return err
	}
	return nil
}

func writeDelta(ctx context.Context, tx *sqlx.Tx, studentID string, add, remove []string, actor models.Actor) error {
	now := time.Now().UTC()
	if len(add) > 0 {
		const query = `UPDATE classes SET student_ids = array_append(student_ids, $1), updated_at = $3, updated_by = $4, updated_by_name = $5
WHERE id = ANY($2) AND NOT ($1 = ANY(student_ids))`
		if _, err := tx.ExecContext(ctx, query, studentID, pq.Array(add), now, actor.ID, actor.Name); err != nil {
			return classify(err, "add to rosters")
		}
	}
	if len(remove) > 0 {
		const query = `UPDATE classes SET student_ids = array_remove(student_ids, $1), updated_at = $3, updated_by = $4, updated_by_name = $5
WHERE id = ANY($2) AND $1 = ANY(student_ids)`
		if _, err := tx.ExecContext(ctx, query, studentID, pq.Array(remove), now, actor.ID, actor.Name); err != nil {
			return classify(err, "remove from rosters")
		}
	}
	return nil
}

func countDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
