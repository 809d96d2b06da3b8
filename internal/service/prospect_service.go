package service

import (
	"context"
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

type studentRegistrar interface {
	ValidateInput(input StudentInput) error
	Register(ctx context.Context, actor models.Actor, input StudentInput, prospectID *string) (*models.Student, error)
	Announce(ctx context.Context, student *models.Student)
	Remove(ctx context.Context, id string) error
}

// ProspectInput holds the editable inquiry fields of a prospect.
type ProspectInput struct {
	Name                string               `json:"name" validate:"required"`
	Email               *string              `json:"email" validate:"omitempty,email"`
	Phone               *string              `json:"phone"`
	ContactMethod       models.ContactMethod `json:"contactMethod" validate:"required"`
	DateOfContact       time.Time            `json:"dateOfContact" validate:"required"`
	Notes               string               `json:"notes"`
	ServiceInterestedIn models.ServiceType   `json:"serviceInterestedIn" validate:"required"`
	TrainingLanguages   []string             `json:"trainingLanguages"`
	SourceLanguage      string               `json:"sourceLanguage"`
	TargetLanguage      string               `json:"targetLanguage"`
	// ClearServiceFields allows an update to switch the service type, dropping
	// the previous branch's fields.
	ClearServiceFields bool `json:"clearServiceFields"`
}

// CompletionInput carries the completion details of a translation or interpretation job.
type CompletionInput struct {
	CompletedAt   time.Time           `json:"completedAt"`
	DocumentTitle string              `json:"documentTitle"`
	Pages         int                 `json:"pages"`
	RatePerPage   decimal.Decimal     `json:"ratePerPage"`
	Subject       string              `json:"subject"`
	Duration      decimal.Decimal     `json:"duration"`
	DurationUnit  models.DurationUnit `json:"durationUnit"`
	Rate          decimal.Decimal     `json:"rate"`
}

// ConversionResult is the outcome of converting a training prospect.
type ConversionResult struct {
	Prospect *models.Prospect `json:"prospect"`
	Student  *models.Student  `json:"student"`
}

// CompletionResult is the outcome of logging a job completion. Edited is true
// when the job was already completed and only its details changed.
type CompletionResult struct {
	Prospect *models.Prospect `json:"prospect"`
	Edited   bool             `json:"edited"`
}

// ProspectService owns the prospect lifecycle: intake, edits, and the
// service-specific conversion paths.
type ProspectService struct {
	prospects repository.ProspectStore
	students  studentRegistrar
	actors    ActorProvider
	events    events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	locks     *keyedMutex
}

// NewProspectService constructs the prospect service.
func NewProspectService(prospects repository.ProspectStore, students studentRegistrar, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProspectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &ProspectService{
		prospects: prospects,
		students:  students,
		actors:    actors,
		events:    publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		locks:     newKeyedMutex(),
	}
}

// Get returns a prospect by id.
func (s *ProspectService) Get(ctx context.Context, id string) (*models.Prospect, error) {
	prospect, err := s.prospects.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "prospect not found", "load prospect")
	}
	return prospect, nil
}

// SearchActive lists prospects still in the pipeline.
func (s *ProspectService) SearchActive(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error) {
	filter.Status = models.ProspectInquired
	return s.search(ctx, filter)
}

// SearchCompleted lists converted prospects, the completed-jobs history.
func (s *ProspectService) SearchCompleted(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error) {
	filter.Status = models.ProspectConverted
	return s.search(ctx, filter)
}

func (s *ProspectService) search(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error) {
	if filter.Window != "" && filter.Custom != nil {
		if err := filter.Custom.Validate(); err != nil {
			return nil, appErrors.Invalid("invalid date range", appErrors.Field("custom", err.Error()))
		}
	}
	items, err := s.prospects.Search(ctx, filter)
	if err != nil {
		return nil, internalError(err, "search prospects")
	}
	return items, nil
}

// Create records a new inquiry.
func (s *ProspectService) Create(ctx context.Context, input ProspectInput) (*models.Prospect, error) {
	service, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	prospect := &models.Prospect{Status: models.ProspectInquired}
	applyProspectInput(prospect, input, service)
	prospect.StampCreated(actor, time.Now().UTC())
	if err := s.prospects.Create(ctx, prospect); err != nil {
		return nil, internalError(err, "create prospect")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ProspectCreated, prospect)
	return prospect, nil
}

// Update edits inquiry fields. The service type can only change when
// ClearServiceFields is set, and a converted prospect's service branch is
// owned by its completion workflow. Status never changes here.
func (s *ProspectService) Update(ctx context.Context, id string, input ProspectInput) (*models.Prospect, error) {
	service, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	prospect, err := s.prospects.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "prospect not found", "load prospect")
	}
	switch {
	case prospect.Converted():
		if !sameBranch(prospect.Service, service) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "service details of a converted prospect cannot be changed")
		}
		service = prospect.Service
	case prospect.ServiceType() != "" && service.ServiceType() != prospect.ServiceType() && !input.ClearServiceFields:
		return nil, appErrors.Invalid("invalid prospect payload",
			appErrors.Field("serviceInterestedIn", "changing the service type requires clearing service fields"))
	}

	applyProspectInput(prospect, input, service)
	prospect.StampUpdated(actor, time.Now().UTC())
	if err := s.prospects.Update(ctx, prospect); err != nil {
		return nil, storeError(err, "prospect not found", "update prospect")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ProspectUpdated, prospect)
	return prospect, nil
}

// Delete permanently removes a prospect together with its follow-ups.
func (s *ProspectService) Delete(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.prospects.Delete(ctx, id); err != nil {
		return storeError(err, "prospect not found", "delete prospect")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ProspectDeleted, map[string]string{"id": id})
	publish(ctx, s.events, s.metrics, s.logger, events.FollowUpUpdated, nil)
	return nil
}

// ConvertToStudent registers a language-training prospect as a student and
// marks the prospect Converted. The store only accepts the conversion while
// the prospect is still Inquired; otherwise the new student is removed again
// and student.created is never published.
func (s *ProspectService) ConvertToStudent(ctx context.Context, prospectID string, details StudentInput) (*ConversionResult, error) {
	if err := s.students.ValidateInput(details); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(prospectID)
	defer unlock()

	prospect, err := s.prospects.FindByID(ctx, prospectID)
	if err != nil {
		return nil, storeError(err, "prospect not found", "load prospect")
	}
	if prospect.Converted() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "prospect already converted")
	}
	if _, ok := prospect.Service.(models.TrainingService); !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only language training prospects convert to students")
	}

	student, err := s.students.Register(ctx, actor, details, &prospect.ID)
	if err != nil {
		return nil, err
	}

	convertedAt := details.RegistrationDate
	prospect.Status = models.ProspectConverted
	prospect.ConvertedAt = &convertedAt
	prospect.StudentID = &student.ID
	prospect.StampUpdated(actor, time.Now().UTC())
	if err := s.prospects.MarkConverted(ctx, prospect); err != nil {
		if rbErr := s.students.Remove(ctx, student.ID); rbErr != nil {
			s.logger.Error("failed to roll back student after conversion failure",
				zap.String("prospect_id", prospectID), zap.String("student_id", student.ID), zap.Error(rbErr))
		}
		return nil, guardedError(err, "prospect not found", "prospect already converted", "convert prospect")
	}

	s.students.Announce(ctx, student)
	s.metrics.RecordConversion(string(models.ServiceLanguageTraining))
	s.logger.Info("prospect converted",
		zap.String("prospect_id", prospect.ID), zap.String("student_id", student.StudentID), zap.String("actor", actor.ID))
	result := &ConversionResult{Prospect: prospect, Student: student}
	publish(ctx, s.events, s.metrics, s.logger, events.ProspectConverted, result)
	return result, nil
}

// LogServiceCompletion records the completion of a translation or
// interpretation job and computes its fee. The first call converts the
// prospect; later calls edit the completion details and keep the status.
func (s *ProspectService) LogServiceCompletion(ctx context.Context, prospectID string, input CompletionInput) (*CompletionResult, error) {
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(prospectID)
	defer unlock()

	prospect, err := s.prospects.FindByID(ctx, prospectID)
	if err != nil {
		return nil, storeError(err, "prospect not found", "load prospect")
	}

	switch v := prospect.Service.(type) {
	case models.TranslationService:
		completion, err := translationCompletion(input)
		if err != nil {
			return nil, err
		}
		v.Completion = completion
		prospect.Service = v
	case models.InterpretationService:
		completion, err := interpretationCompletion(input)
		if err != nil {
			return nil, err
		}
		v.Completion = completion
		prospect.Service = v
	case models.TrainingService:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "language training prospects convert through student registration")
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "prospect has no completable service")
	}

	edited := prospect.Converted()
	completedAt := input.CompletedAt
	prospect.Status = models.ProspectConverted
	prospect.ConvertedAt = &completedAt
	prospect.StampUpdated(actor, time.Now().UTC())
	write := s.prospects.MarkConverted
	if edited {
		write = s.prospects.Update
	}
	if err := write(ctx, prospect); err != nil {
		return nil, guardedError(err, "prospect not found", "prospect already converted", "record completion")
	}

	fee, _ := models.CompletionFee(prospect.Service)
	if edited {
		s.logger.Info("completion details edited", zap.String("prospect_id", prospect.ID), zap.String("total_fee", fee.String()))
		publish(ctx, s.events, s.metrics, s.logger, events.ProspectUpdated, prospect)
	} else {
		s.metrics.RecordConversion(string(prospect.ServiceType()))
		s.logger.Info("prospect converted",
			zap.String("prospect_id", prospect.ID), zap.String("service", string(prospect.ServiceType())), zap.String("total_fee", fee.String()))
		publish(ctx, s.events, s.metrics, s.logger, events.ProspectConverted, prospect)
	}
	return &CompletionResult{Prospect: prospect, Edited: edited}, nil
}

func translationCompletion(input CompletionInput) (*models.TranslationCompletion, error) {
	var details []appErrors.FieldError
	title := strings.TrimSpace(input.DocumentTitle)
	if title == "" {
		details = append(details, appErrors.Field("documentTitle", "required"))
	}
	if input.Pages <= 0 {
		details = append(details, appErrors.Field("pages", "must be positive"))
	}
	if input.RatePerPage.IsNegative() {
		details = append(details, appErrors.Field("ratePerPage", "must not be negative"))
	}
	if input.CompletedAt.IsZero() {
		details = append(details, appErrors.Field("completedAt", "required"))
	}
	if len(details) > 0 {
		return nil, appErrors.Invalid("invalid completion details", details...)
	}
	return &models.TranslationCompletion{
		CompletedAt:   input.CompletedAt,
		DocumentTitle: title,
		Pages:         input.Pages,
		RatePerPage:   input.RatePerPage,
		TotalFee:      decimal.NewFromInt(int64(input.Pages)).Mul(input.RatePerPage),
	}, nil
}

func interpretationCompletion(input CompletionInput) (*models.InterpretationCompletion, error) {
	var details []appErrors.FieldError
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		details = append(details, appErrors.Field("subject", "required"))
	}
	if !input.Duration.IsPositive() {
		details = append(details, appErrors.Field("duration", "must be positive"))
	}
	if !input.DurationUnit.Valid() {
		details = append(details, appErrors.Field("durationUnit", "must be Hours or Days"))
	}
	if input.Rate.IsNegative() {
		details = append(details, appErrors.Field("rate", "must not be negative"))
	}
	if input.CompletedAt.IsZero() {
		details = append(details, appErrors.Field("completedAt", "required"))
	}
	if len(details) > 0 {
		return nil, appErrors.Invalid("invalid completion details", details...)
	}
	return &models.InterpretationCompletion{
		CompletedAt: input.CompletedAt,
		Subject:     subject,
		Duration:    input.Duration,
		Unit:        input.DurationUnit,
		Rate:        input.Rate,
		TotalFee:    input.Duration.Mul(input.Rate),
	}, nil
}

// validateInput checks the inquiry fields and builds the service branch.
func (s *ProspectService) validateInput(input ProspectInput) (models.ServiceDetails, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.FromValidation(err, "invalid prospect payload")
	}
	var details []appErrors.FieldError
	if strings.TrimSpace(input.Name) == "" {
		details = append(details, appErrors.Field("name", "required"))
	}
	if !input.ContactMethod.Valid() {
		details = append(details, appErrors.Field("contactMethod", "unknown contact method"))
	}

	languages := make([]string, 0, len(input.TrainingLanguages))
	for _, lang := range input.TrainingLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	pair := models.LanguagePair{Source: strings.TrimSpace(input.SourceLanguage), Target: strings.TrimSpace(input.TargetLanguage)}

	switch input.ServiceInterestedIn {
	case models.ServiceLanguageTraining:
		if len(languages) == 0 {
			details = append(details, appErrors.Field("trainingLanguages", "at least one language is required"))
		}
	case models.ServiceDocTranslation, models.ServiceInterpretation:
		if pair.Source == "" {
			details = append(details, appErrors.Field("sourceLanguage", "required"))
		}
		if pair.Target == "" {
			details = append(details, appErrors.Field("targetLanguage", "required"))
		}
		if pair.Source != "" && strings.EqualFold(pair.Source, pair.Target) {
			details = append(details, appErrors.Field("targetLanguage", "must differ from source language"))
		}
	default:
		details = append(details, appErrors.Field("serviceInterestedIn", "unknown service type"))
	}
	if len(details) > 0 {
		return nil, appErrors.Invalid("invalid prospect payload", details...)
	}
	return models.NewServiceDetails(input.ServiceInterestedIn, languages, pair)
}

func applyProspectInput(p *models.Prospect, input ProspectInput, service models.ServiceDetails) {
	p.Name = strings.TrimSpace(input.Name)
	p.Email = trimmedPtr(input.Email)
	p.Phone = trimmedPtr(input.Phone)
	p.ContactMethod = input.ContactMethod
	p.DateOfContact = input.DateOfContact
	p.Notes = input.Notes
	p.Service = service
}

// sameBranch compares two service branches ignoring completion details.
func sameBranch(a, b models.ServiceDetails) bool {
	switch x := a.(type) {
	case models.TrainingService:
		y, ok := b.(models.TrainingService)
		if !ok || len(x.Languages) != len(y.Languages) {
			return false
		}
		for i := range x.Languages {
			if !strings.EqualFold(x.Languages[i], y.Languages[i]) {
				return false
			}
		}
		return true
	case models.TranslationService:
		y, ok := b.(models.TranslationService)
		return ok && samePair(x.Pair, y.Pair)
	case models.InterpretationService:
		y, ok := b.(models.InterpretationService)
		return ok && samePair(x.Pair, y.Pair)
	default:
		return a == nil && b == nil
	}
}

func samePair(a, b models.LanguagePair) bool {
	return strings.EqualFold(a.Source, b.Source) && strings.EqualFold(a.Target, b.Target)
}
