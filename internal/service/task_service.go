package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

type prospectReader interface {
	FindByID(ctx context.Context, id string) (*models.Prospect, error)
}

// FollowUpInput holds the editable fields of a follow-up.
type FollowUpInput struct {
	ProspectID string    `json:"prospectId" validate:"required"`
	DueDate    time.Time `json:"dueDate" validate:"required"`
	Assignee   string    `json:"assignee"`
	Notes      string    `json:"notes"`
}

// CommunicationInput holds the editable fields of a communication.
type CommunicationInput struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	DueDate     time.Time       `json:"dueDate" validate:"required"`
	Assignee    string          `json:"assignee"`
	Notes       string          `json:"notes"`
	Priority    models.Priority `json:"priority"`
}

// TaskService schedules prospect follow-ups and team communications.
type TaskService struct {
	followUps repository.FollowUpStore
	comms     repository.CommunicationStore
	prospects prospectReader
	actors    ActorProvider
	events    events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	locks     *keyedMutex
}

// NewTaskService constructs TaskService.
func NewTaskService(followUps repository.FollowUpStore, comms repository.CommunicationStore, prospects prospectReader, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &TaskService{
		followUps: followUps,
		comms:     comms,
		prospects: prospects,
		actors:    actors,
		events:    publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       systemClock,
		locks:     newKeyedMutex(),
	}
}

// ListFollowUps returns follow-ups ordered by due date.
func (s *TaskService) ListFollowUps(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUpAction, error) {
	items, err := s.followUps.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "list follow-ups")
	}
	return items, nil
}

// GetFollowUp returns a follow-up by id.
func (s *TaskService) GetFollowUp(ctx context.Context, id string) (*models.FollowUpAction, error) {
	item, err := s.followUps.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "follow-up not found", "load follow-up")
	}
	return item, nil
}

// CreateFollowUp schedules a follow-up for an existing prospect. Converted
// prospects are accepted so their history can still be recorded.
func (s *TaskService) CreateFollowUp(ctx context.Context, input FollowUpInput) (*models.FollowUpAction, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.FromValidation(err, "invalid follow-up payload")
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.prospects.FindByID(ctx, input.ProspectID); err != nil {
		return nil, storeError(err, "prospect not found", "load prospect")
	}
	item := &models.FollowUpAction{
		ProspectID: input.ProspectID,
		DueDate:    input.DueDate,
		Assignee:   strings.TrimSpace(input.Assignee),
		Notes:      strings.TrimSpace(input.Notes),
		Status:     models.TaskPending,
	}
	item.StampCreated(actor, s.now())
	if err := s.followUps.Create(ctx, item); err != nil {
		return nil, internalError(err, "create follow-up")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.FollowUpUpdated, item)
	return item, nil
}

// UpdateFollowUp edits a pending follow-up. It cannot move to another prospect.
func (s *TaskService) UpdateFollowUp(ctx context.Context, id string, input FollowUpInput) (*models.FollowUpAction, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.FromValidation(err, "invalid follow-up payload")
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock("followup:" + id)()
	item, err := s.followUps.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "follow-up not found", "load follow-up")
	}
	if item.Status == models.TaskCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "follow-up already completed")
	}
	if input.ProspectID != item.ProspectID {
		return nil, appErrors.Invalid("invalid follow-up payload", appErrors.Field("prospectId", "cannot be changed"))
	}
	item.DueDate = input.DueDate
	item.Assignee = strings.TrimSpace(input.Assignee)
	item.Notes = strings.TrimSpace(input.Notes)
	item.StampUpdated(actor, s.now())
	if err := s.followUps.Update(ctx, item); err != nil {
		return nil, guardedError(err, "follow-up not found", "follow-up already completed", "update follow-up")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.FollowUpUpdated, item)
	return item, nil
}

// CompleteFollowUp closes a pending follow-up with its outcome.
func (s *TaskService) CompleteFollowUp(ctx context.Context, id, outcome string) (*models.FollowUpAction, error) {
	outcome, err := requireOutcome(outcome)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock("followup:" + id)()
	item, err := s.followUps.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "follow-up not found", "load follow-up")
	}
	if item.Status == models.TaskCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "follow-up already completed")
	}
	now := s.now()
	item.Status = models.TaskCompleted
	item.Outcome = &outcome
	item.CompletedAt = &now
	item.StampUpdated(actor, now)
	if err := s.followUps.Update(ctx, item); err != nil {
		return nil, guardedError(err, "follow-up not found", "follow-up already completed", "complete follow-up")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.FollowUpUpdated, item)
	return item, nil
}

// DeleteFollowUp removes a follow-up.
func (s *TaskService) DeleteFollowUp(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.followUps.Delete(ctx, id); err != nil {
		return storeError(err, "follow-up not found", "delete follow-up")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.FollowUpUpdated, map[string]string{"id": id, "deleted": "true"})
	return nil
}

// ListCommunications returns communications ordered by due date.
func (s *TaskService) ListCommunications(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, error) {
	items, err := s.comms.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "list communications")
	}
	return items, nil
}

// GetCommunication returns a communication by id.
func (s *TaskService) GetCommunication(ctx context.Context, id string) (*models.Communication, error) {
	item, err := s.comms.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "communication not found", "load communication")
	}
	return item, nil
}

// CreateCommunication schedules a team task. Priority defaults to Medium.
func (s *TaskService) CreateCommunication(ctx context.Context, input CommunicationInput) (*models.Communication, error) {
	if err := s.validateCommunication(&input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	item := &models.Communication{Status: models.TaskPending}
	applyCommunicationInput(item, input)
	item.StampCreated(actor, s.now())
	if err := s.comms.Create(ctx, item); err != nil {
		return nil, internalError(err, "create communication")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.CommunicationUpdated, item)
	return item, nil
}

// UpdateCommunication edits a pending communication.
func (s *TaskService) UpdateCommunication(ctx context.Context, id string, input CommunicationInput) (*models.Communication, error) {
	if err := s.validateCommunication(&input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock("communication:" + id)()
	item, err := s.comms.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "communication not found", "load communication")
	}
	if item.Status == models.TaskCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "communication already completed")
	}
	applyCommunicationInput(item, input)
	item.StampUpdated(actor, s.now())
	if err := s.comms.Update(ctx, item); err != nil {
		return nil, guardedError(err, "communication not found", "communication already completed", "update communication")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.CommunicationUpdated, item)
	return item, nil
}

// CompleteCommunication closes a pending communication with its outcome.
func (s *TaskService) CompleteCommunication(ctx context.Context, id, outcome string) (*models.Communication, error) {
	outcome, err := requireOutcome(outcome)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock("communication:" + id)()
	item, err := s.comms.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "communication not found", "load communication")
	}
	if item.Status == models.TaskCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "communication already completed")
	}
	now := s.now()
	item.Status = models.TaskCompleted
	item.Outcome = &outcome
	item.CompletedAt = &now
	item.StampUpdated(actor, now)
	if err := s.comms.Update(ctx, item); err != nil {
		return nil, guardedError(err, "communication not found", "communication already completed", "complete communication")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.CommunicationUpdated, item)
	return item, nil
}

// DeleteCommunication removes a communication.
func (s *TaskService) DeleteCommunication(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.comms.Delete(ctx, id); err != nil {
		return storeError(err, "communication not found", "delete communication")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.CommunicationUpdated, map[string]string{"id": id, "deleted": "true"})
	return nil
}

// Feed merges follow-ups and communications into one due-date ordered list.
func (s *TaskService) Feed(ctx context.Context, filter models.TaskFeedFilter) ([]models.TaskItem, error) {
	followUps, err := s.followUps.List(ctx, models.FollowUpFilter{})
	if err != nil {
		return nil, internalError(err, "list follow-ups")
	}
	comms, err := s.comms.List(ctx, models.CommunicationFilter{})
	if err != nil {
		return nil, internalError(err, "list communications")
	}
	return MergeTaskFeed(followUps, comms, s.now(), filter), nil
}

// ProspectIndicators returns follow-up badge data for every prospect with
// pending follow-ups.
func (s *TaskService) ProspectIndicators(ctx context.Context) (map[string]models.ProspectIndicator, error) {
	followUps, err := s.followUps.List(ctx, models.FollowUpFilter{Status: models.TaskPending})
	if err != nil {
		return nil, internalError(err, "list follow-ups")
	}
	return BuildProspectIndicators(followUps, s.now()), nil
}

func (s *TaskService) validateCommunication(input *CommunicationInput) error {
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := s.validator.Struct(input); err != nil {
		return appErrors.FromValidation(err, "invalid communication payload")
	}
	if strings.TrimSpace(input.Title) == "" {
		return appErrors.Invalid("invalid communication payload", appErrors.Field("title", "required"))
	}
	if !input.Priority.Valid() {
		return appErrors.Invalid("invalid communication payload", appErrors.Field("priority", "unknown priority"))
	}
	return nil
}

func applyCommunicationInput(item *models.Communication, input CommunicationInput) {
	item.Title = strings.TrimSpace(input.Title)
	item.Description = strings.TrimSpace(input.Description)
	item.DueDate = input.DueDate
	item.Assignee = strings.TrimSpace(input.Assignee)
	item.Notes = strings.TrimSpace(input.Notes)
	item.Priority = input.Priority
}

func requireOutcome(outcome string) (string, error) {
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		return "", appErrors.Invalid("outcome is required to complete a task", appErrors.Field("outcome", "required"))
	}
	return outcome, nil
}
