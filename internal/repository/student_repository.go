package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_id, prospect_id, name, email, phone, registration_date, date_of_birth, nationality, occupation,
address, mother_tongue, referral_source, referral_other, total_fees,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at`

// Create inserts a new student. A taken studentId yields ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	const query = `INSERT INTO students (id, student_id, prospect_id, name, email, phone, registration_date, date_of_birth, nationality,
occupation, address, mother_tongue, referral_source, referral_other, total_fees,
created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at)
VALUES (:id, :student_id, :prospect_id, :name, :email, :phone, :registration_date, :date_of_birth, :nationality,
:occupation, :address, :mother_tongue, :referral_source, :referral_other, :total_fees,
:created_by, :created_by_name, :created_at, :updated_by, :updated_by_name, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return classify(err, "create student")
	}
	return nil
}

// FindByID fetches a student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return nil, classify(err, "find student")
	}
	return &student, nil
}

// FindByIDs fetches the students that exist among ids.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	students := []models.Student{}
	if len(ids) == 0 {
		return students, nil
	}
	query := "SELECT " + studentColumns + " FROM students WHERE id = ANY($1) ORDER BY name"
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, classify(err, "find students")
	}
	return students, nil
}

// Update modifies an existing student. The studentId column is never rewritten.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET name = :name, email = :email, phone = :phone, registration_date = :registration_date,
date_of_birth = :date_of_birth, nationality = :nationality, occupation = :occupation, address = :address,
mother_tongue = :mother_tongue, referral_source = :referral_source, referral_other = :referral_other, total_fees = :total_fees,
updated_by = :updated_by, updated_by_name = :updated_by_name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return classify(err, "update student")
	}
	return affected(res, "update student")
}

// Delete removes a student and strips it from every roster.
func (r *StudentRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err, "begin delete student")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = lockRoster(ctx, tx, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "UPDATE classes SET student_ids = array_remove(student_ids, $1) WHERE $1 = ANY(student_ids)", id); err != nil {
		return classify(err, "unenroll student")
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return classify(err, "delete student")
	}
	if err = affected(res, "delete student"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return classify(err, "commit delete student")
	}
	return nil
}

// List returns students newest registration first.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var conds conditions
	conds.search(filter.Search, "name", "student_id", "email", "phone")
	query := "SELECT " + studentColumns + " FROM students" + conds.where() + " ORDER BY registration_date DESC, student_id DESC"
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, conds.args...); err != nil {
		return nil, classify(err, "list students")
	}
	return students, nil
}
