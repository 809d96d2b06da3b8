package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

type studentBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// ClassInput captures the editable fields of a class. StudentIDs is only read
// on creation; later roster changes go through EnrollmentService.
type ClassInput struct {
	Name       string                   `json:"name" validate:"required"`
	Language   string                   `json:"language" validate:"required"`
	Level      models.Level             `json:"level" validate:"required"`
	TeacherID  string                   `json:"teacherId"`
	Schedule   []models.ScheduleSession `json:"schedule"`
	StudentIDs []string                 `json:"studentIds"`
}

// ClassService coordinates class operations.
type ClassService struct {
	classes   repository.ClassStore
	students  studentBatchReader
	actors    ActorProvider
	events    events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(classes repository.ClassStore, students studentBatchReader, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &ClassService{classes: classes, students: students, actors: actors, events: publisher, metrics: metrics, validator: validate, logger: logger}
}

// List returns a page of classes.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "list classes")
	}
	page, size := filter.Normalize()
	start, end := filter.Slice(len(classes))
	return classes[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: len(classes)}, nil
}

// Get returns a class with its roster ids.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "load class")
	}
	return class, nil
}

// Roster resolves the students enrolled in a class.
func (s *ClassService) Roster(ctx context.Context, id string) ([]models.Student, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.students.FindByIDs(ctx, class.StudentIDs)
	if err != nil {
		return nil, internalError(err, "load roster")
	}
	return students, nil
}

// Create adds a class with an optional initial roster.
func (s *ClassService) Create(ctx context.Context, input ClassInput) (*models.Class, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	roster, err := normalizeIDs(input.StudentIDs)
	if err != nil {
		return nil, appErrors.Invalid("invalid class payload", appErrors.Field("studentIds", "must not contain empty ids"))
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) > 0 {
		found, err := s.students.FindByIDs(ctx, roster)
		if err != nil {
			return nil, internalError(err, "load students")
		}
		if len(found) != len(roster) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more students not found")
		}
	}
	class := &models.Class{StudentIDs: roster}
	applyClassInput(class, input)
	class.StampCreated(actor, time.Now().UTC())
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, internalError(err, "create class")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ClassChanged, class)
	return class, nil
}

// Update modifies class details. The roster is left as it is.
func (s *ClassService) Update(ctx context.Context, id string, input ClassInput) (*models.Class, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "load class")
	}
	applyClassInput(class, input)
	class.StampUpdated(actor, time.Now().UTC())
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, storeError(err, "class not found", "update class")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ClassChanged, class)
	return class, nil
}

// Delete removes a class. Its roster goes with it, which unenrolls every
// student; no other record refers to the class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.classes.Delete(ctx, id); err != nil {
		return storeError(err, "class not found", "delete class")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ClassChanged, map[string]string{"id": id, "deleted": "true"})
	return nil
}

func (s *ClassService) validate(input ClassInput) error {
	if err := s.validator.Struct(input); err != nil {
		return appErrors.FromValidation(err, "invalid class payload")
	}
	var details []appErrors.FieldError
	if !input.Level.Valid() {
		details = append(details, appErrors.Field("level", "unknown level"))
	}
	for i, session := range input.Schedule {
		if err := session.Validate(); err != nil {
			details = append(details, appErrors.Field(fmt.Sprintf("schedule[%d]", i), err.Error()))
		}
	}
	if len(details) > 0 {
		return appErrors.Invalid("invalid class payload", details...)
	}
	return nil
}

func applyClassInput(class *models.Class, input ClassInput) {
	class.Name = strings.TrimSpace(input.Name)
	class.Language = strings.TrimSpace(input.Language)
	class.Level = input.Level
	class.TeacherID = input.TeacherID
	class.Schedule = append([]models.ScheduleSession{}, input.Schedule...)
}
