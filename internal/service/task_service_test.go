package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

func TestCreateFollowUpRequiresExistingProspect(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tasks.CreateFollowUp(context.Background(), FollowUpInput{ProspectID: "missing", DueDate: date(2026, 3, 1)})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = env.tasks.CreateFollowUp(context.Background(), FollowUpInput{ProspectID: "missing"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCompleteFollowUpRequiresOutcomeAndIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	followUp, err := env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 1), Notes: "Call about schedule"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, followUp.Status)

	_, err = env.tasks.CompleteFollowUp(ctx, followUp.ID, "   ")
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, []appErrors.FieldError{appErrors.Field("outcome", "required")}, appErrors.FromError(err).Details)

	done, err := env.tasks.CompleteFollowUp(ctx, followUp.ID, "Enrolled next week")
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, "Enrolled next week", *done.Outcome)
	assert.NotNil(t, done.CompletedAt)

	_, err = env.tasks.CompleteFollowUp(ctx, followUp.ID, "again")
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
	_, err = env.tasks.UpdateFollowUp(ctx, followUp.ID, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 5)})
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

// interleavedFollowUps runs between once, right after the first read.
type interleavedFollowUps struct {
	repository.FollowUpStore
	once    sync.Once
	between func()
}

func (s *interleavedFollowUps) FindByID(ctx context.Context, id string) (*models.FollowUpAction, error) {
	item, err := s.FollowUpStore.FindByID(ctx, id)
	s.once.Do(s.between)
	return item, err
}

type interleavedCommunications struct {
	repository.CommunicationStore
	once    sync.Once
	between func()
}

func (s *interleavedCommunications) FindByID(ctx context.Context, id string) (*models.Communication, error) {
	item, err := s.CommunicationStore.FindByID(ctx, id)
	s.once.Do(s.between)
	return item, err
}

func TestUpdateFollowUpCannotReopenConcurrentCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	followUp, err := env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 1)})
	require.NoError(t, err)

	// A second instance sharing the store completes the follow-up after the
	// editor has read it but before the editor writes.
	wrapped := &interleavedFollowUps{FollowUpStore: env.repos.FollowUps, between: func() {
		_, err := env.tasks.CompleteFollowUp(ctx, followUp.ID, "Booked a trial lesson")
		require.NoError(t, err)
	}}
	editor := NewTaskService(wrapped, env.repos.Communications, env.repos.Prospects, StaticActorProvider{Actor: testActor}, env.publisher, NewMetricsService(), nil, nil)

	_, err = editor.UpdateFollowUp(ctx, followUp.ID, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 9), Notes: "moved"})
	require.ErrorIs(t, err, appErrors.ErrInvalidState)

	stored, err := env.tasks.GetFollowUp(ctx, followUp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, stored.Status)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, "Booked a trial lesson", *stored.Outcome)
	assert.Equal(t, date(2026, 3, 1), stored.DueDate)
}

func TestUpdateCommunicationCannotReopenConcurrentCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	comm, err := env.tasks.CreateCommunication(ctx, CommunicationInput{Title: "Order books", DueDate: date(2026, 3, 2)})
	require.NoError(t, err)

	wrapped := &interleavedCommunications{CommunicationStore: env.repos.Communications, between: func() {
		_, err := env.tasks.CompleteCommunication(ctx, comm.ID, "Ordered")
		require.NoError(t, err)
	}}
	editor := NewTaskService(env.repos.FollowUps, wrapped, env.repos.Prospects, StaticActorProvider{Actor: testActor}, env.publisher, NewMetricsService(), nil, nil)

	_, err = editor.UpdateCommunication(ctx, comm.ID, CommunicationInput{Title: "Order more books", DueDate: date(2026, 3, 4)})
	require.ErrorIs(t, err, appErrors.ErrInvalidState)

	stored, err := env.tasks.GetCommunication(ctx, comm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, stored.Status)
	assert.Equal(t, "Order books", stored.Title)
}

func TestConcurrentUpdateAndCompleteAlwaysEndCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		followUp, err := env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 1)})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = env.tasks.UpdateFollowUp(ctx, followUp.ID, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 2)})
		}()
		go func() {
			defer wg.Done()
			_, _ = env.tasks.CompleteFollowUp(ctx, followUp.ID, "done")
		}()
		wg.Wait()

		stored, err := env.tasks.GetFollowUp(ctx, followUp.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskCompleted, stored.Status)
		require.NotNil(t, stored.Outcome)
	}
}

func TestFollowUpsOnConvertedProspectsAreAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	_, err = env.prospects.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 14)))
	require.NoError(t, err)

	_, err = env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 1)})
	require.NoError(t, err)
}

func TestCommunicationDefaultsPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	comm, err := env.tasks.CreateCommunication(ctx, CommunicationInput{Title: " Order books ", DueDate: date(2026, 3, 2)})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, comm.Priority)
	assert.Equal(t, "Order books", comm.Title)
	assert.Equal(t, []events.Name{events.CommunicationUpdated}, env.publisher.names())

	_, err = env.tasks.CreateCommunication(ctx, CommunicationInput{Title: "x", DueDate: date(2026, 3, 2), Priority: "Urgent"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = env.tasks.CompleteCommunication(ctx, comm.ID, "")
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = env.tasks.CompleteCommunication(ctx, comm.ID, "done")
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteCommunication(ctx, comm.ID))
	_, err = env.tasks.GetCommunication(ctx, comm.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTaskFeedAndIndicators(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.now = func() time.Time { return time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	overdue, err := env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 9), Notes: "Overdue call"})
	require.NoError(t, err)
	_, err = env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 15)})
	require.NoError(t, err)
	comm, err := env.tasks.CreateCommunication(ctx, CommunicationInput{Title: "Meeting", DueDate: date(2026, 3, 10)})
	require.NoError(t, err)

	feed, err := env.tasks.Feed(ctx, models.TaskFeedFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, overdue.ID, feed[0].ID)
	assert.Equal(t, models.UrgencyOverdue, feed[0].Urgency)
	assert.Equal(t, comm.ID, feed[1].ID)
	assert.Equal(t, models.UrgencyDueToday, feed[1].Urgency)
	assert.Equal(t, models.UrgencyUpcoming, feed[2].Urgency)

	indicators, err := env.tasks.ProspectIndicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProspectIndicator{Count: 2, HasOverdue: true}, indicators[p.ID])

	_, err = env.tasks.CompleteFollowUp(ctx, overdue.ID, "reached")
	require.NoError(t, err)
	indicators, err = env.tasks.ProspectIndicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProspectIndicator{Count: 1}, indicators[p.ID])
}
