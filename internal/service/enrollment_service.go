package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type rosterStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
	ApplyRosterDelta(ctx context.Context, studentID string, add, remove []string, actor models.Actor) error
	SetStudentClasses(ctx context.Context, studentID string, target []string, actor models.Actor) (*models.EnrollmentChange, error)
}

// EnrollmentService keeps student/class membership consistent. Class rosters
// are the only record of enrollment; a student's classes are derived by
// scanning them.
type EnrollmentService struct {
	students studentReader
	classes  rosterStore
	actors   ActorProvider
	events   events.Publisher
	metrics  *MetricsService
	logger   *zap.Logger
	locks    *keyedMutex
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(students studentReader, classes rosterStore, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &EnrollmentService{
		students: students,
		classes:  classes,
		actors:   actors,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// StudentClasses returns the classes whose roster holds the student.
func (s *EnrollmentService) StudentClasses(ctx context.Context, studentID string) ([]models.Class, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, internalError(err, "list student classes")
	}
	return classes, nil
}

// SetStudentEnrollments makes classIDs the student's exact set of classes,
// writing only the difference. The store reads the current rosters and writes
// the delta in one step, so a concurrent delete of the student cannot leave an
// orphaned enrollment.
func (s *EnrollmentService) SetStudentEnrollments(ctx context.Context, studentID string, classIDs []string) (*models.EnrollmentChange, error) {
	target, err := normalizeIDs(classIDs)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	for _, id := range target {
		if _, err := s.classes.FindByID(ctx, id); err != nil {
			return nil, storeError(err, "class "+id+" not found", "load class")
		}
	}

	change, err := s.classes.SetStudentClasses(ctx, studentID, target, actor)
	if err != nil {
		return nil, s.rosterError(ctx, studentID, err)
	}
	if change.Empty() {
		return change, nil
	}
	s.recordDelta(change.Added, change.Removed)
	s.logger.Info("enrollments updated",
		zap.String("student_id", studentID), zap.Strings("added", change.Added), zap.Strings("removed", change.Removed), zap.String("actor", actor.ID))
	publish(ctx, s.events, s.metrics, s.logger, events.EnrollmentChanged, change)
	return change, nil
}

// AssignStudentToClass enrolls the student. Already enrolled is a no-op.
func (s *EnrollmentService) AssignStudentToClass(ctx context.Context, studentID, classID string) (*models.EnrollmentChange, error) {
	return s.single(ctx, studentID, classID, true)
}

// RemoveStudentFromClass unenrolls the student. Not enrolled is a no-op.
func (s *EnrollmentService) RemoveStudentFromClass(ctx context.Context, studentID, classID string) (*models.EnrollmentChange, error) {
	return s.single(ctx, studentID, classID, false)
}

func (s *EnrollmentService) single(ctx context.Context, studentID, classID string, enroll bool) (*models.EnrollmentChange, error) {
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "load class")
	}
	change := &models.EnrollmentChange{StudentID: studentID, Added: []string{}, Removed: []string{}}
	switch {
	case enroll && !class.HasStudent(studentID):
		change.Added = []string{classID}
	case !enroll && class.HasStudent(studentID):
		change.Removed = []string{classID}
	default:
		return change, nil
	}
	if err := s.apply(ctx, studentID, change.Added, change.Removed, actor); err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.metrics, s.logger, events.EnrollmentChanged, change)
	return change, nil
}

func (s *EnrollmentService) apply(ctx context.Context, studentID string, add, remove []string, actor models.Actor) error {
	if err := s.classes.ApplyRosterDelta(ctx, studentID, add, remove, actor); err != nil {
		return s.rosterError(ctx, studentID, err)
	}
	s.recordDelta(add, remove)
	return nil
}

func (s *EnrollmentService) recordDelta(add, remove []string) {
	s.metrics.RecordEnrollmentChange("add", len(add))
	s.metrics.RecordEnrollmentChange("remove", len(remove))
}

// rosterError names the record that vanished between the checks and the
// roster write.
func (s *EnrollmentService) rosterError(ctx context.Context, studentID string, err error) error {
	if !repository.IsNotFound(err) {
		return internalError(err, "update class rosters")
	}
	if _, lookupErr := s.students.FindByID(ctx, studentID); repository.IsNotFound(lookupErr) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

func normalizeIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, appErrors.Invalid("invalid enrollment payload", appErrors.Field("classIds", "must not contain empty ids"))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
