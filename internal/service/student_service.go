package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

// maxStudentIDAttempts bounds retries when a generated studentId is already taken,
// which only happens if the sequence counter was reset behind existing data.
const maxStudentIDAttempts = 3

// StudentInput holds the registration details of a student.
type StudentInput struct {
	Name             string                `json:"name" validate:"required"`
	Email            *string               `json:"email" validate:"omitempty,email"`
	Phone            *string               `json:"phone"`
	RegistrationDate time.Time             `json:"registrationDate" validate:"required"`
	DateOfBirth      *time.Time            `json:"dateOfBirth"`
	Nationality      string                `json:"nationality"`
	Occupation       string                `json:"occupation"`
	Address          string                `json:"address"`
	MotherTongue     string                `json:"motherTongue"`
	ReferralSource   models.ReferralSource `json:"referralSource"`
	ReferralOther    string                `json:"referralOther"`
	TotalFees        decimal.Decimal       `json:"totalFees"`
}

// StudentService handles student registration and maintenance.
type StudentService struct {
	students  repository.StudentStore
	sequences repository.SequenceStore
	actors    ActorProvider
	events    events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentStore, sequences repository.SequenceStore, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &StudentService{students: students, sequences: sequences, actors: actors, events: publisher, metrics: metrics, validator: validate, logger: logger}
}

// FormatStudentID renders STU-DDMMYY-NNNN from the registration date and sequence.
func FormatStudentID(registration time.Time, seq int64) string {
	return fmt.Sprintf("STU-%s-%04d", registration.Format("020106"), seq)
}

// List returns a page of students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "list students")
	}
	page, size := filter.Normalize()
	start, end := filter.Slice(len(students))
	return students[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: len(students)}, nil
}

// Get returns a student by internal id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	return student, nil
}

// Create registers a standalone student.
func (s *StudentService) Create(ctx context.Context, input StudentInput) (*models.Student, error) {
	if err := s.ValidateInput(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	student, err := s.Register(ctx, actor, input, nil)
	if err != nil {
		return nil, err
	}
	s.Announce(ctx, student)
	return student, nil
}

// Register creates a student with a freshly allocated studentId. The input is
// expected to be validated and the actor resolved by the caller. Nothing is
// published until the caller calls Announce.
func (s *StudentService) Register(ctx context.Context, actor models.Actor, input StudentInput, prospectID *string) (*models.Student, error) {
	now := time.Now().UTC()
	student := newStudent(input)
	student.ProspectID = prospectID
	student.StampCreated(actor, now)

	for attempt := 1; ; attempt++ {
		seq, err := s.sequences.NextStudentSequence(ctx, input.RegistrationDate.Year())
		if err != nil {
			return nil, internalError(err, "allocate student id")
		}
		student.ID = ""
		student.StudentID = FormatStudentID(input.RegistrationDate, seq)
		err = s.students.Create(ctx, student)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < maxStudentIDAttempts {
			s.logger.Warn("student id already taken, retrying", zap.String("student_id", student.StudentID))
			continue
		}
		return nil, internalError(err, "create student")
	}

	s.logger.Info("student registered", zap.String("id", student.ID), zap.String("student_id", student.StudentID))
	return student, nil
}

// Announce publishes student.created for a registration that is final.
func (s *StudentService) Announce(ctx context.Context, student *models.Student) {
	publish(ctx, s.events, s.metrics, s.logger, events.StudentCreated, student)
}

// Remove deletes a student that was never announced; used to undo a failed
// conversion.
func (s *StudentService) Remove(ctx context.Context, id string) error {
	return s.students.Delete(ctx, id)
}

// Update modifies a student's details. The studentId never changes.
func (s *StudentService) Update(ctx context.Context, id string, input StudentInput) (*models.Student, error) {
	if err := s.ValidateInput(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	updated := newStudent(input)
	updated.ID = existing.ID
	updated.StudentID = existing.StudentID
	updated.ProspectID = existing.ProspectID
	updated.Attribution = existing.Attribution
	updated.StampUpdated(actor, time.Now().UTC())
	if err := s.students.Update(ctx, updated); err != nil {
		return nil, storeError(err, "student not found", "update student")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.StudentUpdated, updated)
	return updated, nil
}

// Delete removes a student. The store also drops the student from every roster.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return storeError(err, "student not found", "delete student")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.StudentDeleted, map[string]string{"id": id})
	return nil
}

// ValidateInput checks registration details without touching the store.
func (s *StudentService) ValidateInput(input StudentInput) error {
	if err := s.validator.Struct(input); err != nil {
		return appErrors.FromValidation(err, "invalid student payload")
	}
	var details []appErrors.FieldError
	if strings.TrimSpace(input.Name) == "" {
		details = append(details, appErrors.Field("name", "required"))
	}
	if !input.ReferralSource.Valid() {
		details = append(details, appErrors.Field("referralSource", "unknown referral source"))
	}
	if input.TotalFees.IsNegative() {
		details = append(details, appErrors.Field("totalFees", "must not be negative"))
	}
	if input.DateOfBirth != nil && input.DateOfBirth.After(input.RegistrationDate) {
		details = append(details, appErrors.Field("dateOfBirth", "must precede registration date"))
	}
	if len(details) > 0 {
		return appErrors.Invalid("invalid student payload", details...)
	}
	return nil
}

func newStudent(input StudentInput) *models.Student {
	student := &models.Student{
		Name:             strings.TrimSpace(input.Name),
		Email:            trimmedPtr(input.Email),
		Phone:            trimmedPtr(input.Phone),
		RegistrationDate: input.RegistrationDate,
		DateOfBirth:      input.DateOfBirth,
		Nationality:      input.Nationality,
		Occupation:       input.Occupation,
		Address:          input.Address,
		MotherTongue:     input.MotherTongue,
		ReferralSource:   input.ReferralSource,
		TotalFees:        input.TotalFees,
	}
	if input.ReferralSource == models.ReferralOther {
		student.ReferralOther = strings.TrimSpace(input.ReferralOther)
	}
	return student
}
