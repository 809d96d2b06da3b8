package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// ErrNotFound is returned by every store when the keyed record does not exist.
// It aliases sql.ErrNoRows so callers can check either.
var ErrNotFound = sql.ErrNoRows

// ErrDuplicate is returned when a unique key such as studentId is already taken.
var ErrDuplicate = errors.New("duplicate record")

// ErrStale is returned by conditional writes when the stored record is no
// longer in the state the caller read, e.g. a task completed in between.
var ErrStale = errors.New("record changed state")

// IsNotFound reports whether err signals a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStale reports whether err signals a lost conditional write.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// ProspectStore persists prospects.
type ProspectStore interface {
	Create(ctx context.Context, prospect *models.Prospect) error
	FindByID(ctx context.Context, id string) (*models.Prospect, error)
	Update(ctx context.Context, prospect *models.Prospect) error
	// MarkConverted writes prospect only while the stored record is still
	// Inquired, and returns ErrStale otherwise.
	MarkConverted(ctx context.Context, prospect *models.Prospect) error
	// Delete removes the prospect and its follow-ups.
	Delete(ctx context.Context, id string) error
	// Search returns matches ordered by history date, newest first. Windows
	// apply to dateOfContact for inquiries and to convertedAt for converted prospects.
	Search(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error)
}

// StudentStore persists students.
type StudentStore interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

// ClassStore persists classes and their rosters.
type ClassStore interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	// Update replaces class details. The roster is never touched.
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
	// ApplyRosterDelta adds the student to every class in add and removes it
	// from every class in remove, all or nothing. Adding a present id and
	// removing an absent one are no-ops. Changed classes are stamped with actor.
	// The student must exist when the delta is applied.
	ApplyRosterDelta(ctx context.Context, studentID string, add, remove []string, actor models.Actor) error
	// SetStudentClasses makes target the student's exact set of classes. The
	// current membership is read and the difference written in one atomic
	// step; the returned change lists what was added and removed.
	SetStudentClasses(ctx context.Context, studentID string, target []string, actor models.Actor) (*models.EnrollmentChange, error)
}

// FollowUpStore persists prospect follow-ups.
type FollowUpStore interface {
	Create(ctx context.Context, followUp *models.FollowUpAction) error
	FindByID(ctx context.Context, id string) (*models.FollowUpAction, error)
	// Update writes only while the stored follow-up is Pending, and returns
	// ErrStale once it has been completed.
	Update(ctx context.Context, followUp *models.FollowUpAction) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUpAction, error)
}

// CommunicationStore persists team communications.
type CommunicationStore interface {
	Create(ctx context.Context, communication *models.Communication) error
	FindByID(ctx context.Context, id string) (*models.Communication, error)
	// Update writes only while the stored communication is Pending, and
	// returns ErrStale once it has been completed.
	Update(ctx context.Context, communication *models.Communication) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, error)
}

// PaymentStore persists payments.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// ExpenditureStore persists expenditures.
type ExpenditureStore interface {
	Create(ctx context.Context, expenditure *models.Expenditure) error
	FindByID(ctx context.Context, id string) (*models.Expenditure, error)
	Update(ctx context.Context, expenditure *models.Expenditure) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter models.ExpenditureFilter) ([]models.Expenditure, error)
}

// SequenceStore hands out per-year student sequence numbers. Each call
// returns a value never returned before for that year.
type SequenceStore interface {
	NextStudentSequence(ctx context.Context, year int) (int64, error)
}

// ReportJobStore persists asynchronous export jobs.
type ReportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, update models.ReportJobUpdate) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

// Store bundles every collection behind one backend.
type Store struct {
	Prospects      ProspectStore
	Students       StudentStore
	Classes        ClassStore
	FollowUps      FollowUpStore
	Communications CommunicationStore
	Payments       PaymentStore
	Expenditures   ExpenditureStore
	Sequences      SequenceStore
	ReportJobs     ReportJobStore
}
