package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

func TestProspectCreateValidatesServiceBranch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := translationInput("Ines")
	input.TargetLanguage = "english"
	_, err := env.prospects.Create(ctx, input)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Details, appErrors.Field("targetLanguage", "must differ from source language"))

	training := trainingInput("Tom")
	training.TrainingLanguages = []string{" "}
	_, err = env.prospects.Create(ctx, training)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	assert.Equal(t, models.ProspectInquired, created.Status)
	assert.Equal(t, testActor.Name, created.CreatedByName)
	assert.Equal(t, []events.Name{events.ProspectCreated}, env.publisher.names())
}

func TestProspectCreateRequiresActor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProspectService(env.repos.Prospects, env.students, ContextActorProvider{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), trainingInput("Tom"))
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	ctx := WithActor(context.Background(), models.Actor{ID: "u9"})
	created, err := svc.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	assert.Equal(t, "u9", created.CreatedByName)
}

func TestDocTranslationCompletionConvertsAndMovesToCompletedJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, translationInput("Contract Client"))
	require.NoError(t, err)

	result, err := env.prospects.LogServiceCompletion(ctx, p.ID, CompletionInput{
		CompletedAt:   date(2026, 2, 20),
		DocumentTitle: "Contract X",
		Pages:         10,
		RatePerPage:   decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.False(t, result.Edited)
	assert.Equal(t, models.ProspectConverted, result.Prospect.Status)
	fee, ok := models.CompletionFee(result.Prospect.Service)
	require.True(t, ok)
	assert.True(t, fee.Equal(decimal.NewFromInt(50000)), fee.String())

	active, err := env.prospects.SearchActive(ctx, models.ProspectFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	completed, err := env.prospects.SearchCompleted(ctx, models.ProspectFilter{})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, p.ID, completed[0].ID)
	assert.Contains(t, env.publisher.names(), events.ProspectConverted)
}

func TestLogServiceCompletionTwiceEditsDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, translationInput("Ines"))
	require.NoError(t, err)
	input := CompletionInput{CompletedAt: date(2026, 2, 20), DocumentTitle: "Deed", Pages: 4, RatePerPage: decimal.NewFromInt(2500)}
	_, err = env.prospects.LogServiceCompletion(ctx, p.ID, input)
	require.NoError(t, err)
	env.publisher.reset()

	input.Pages = 6
	result, err := env.prospects.LogServiceCompletion(ctx, p.ID, input)
	require.NoError(t, err)
	assert.True(t, result.Edited)
	assert.Equal(t, models.ProspectConverted, result.Prospect.Status)
	fee, _ := models.CompletionFee(result.Prospect.Service)
	assert.True(t, fee.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, []events.Name{events.ProspectUpdated}, env.publisher.names())
}

func TestInterpretationCompletionComputesExactFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := translationInput("Conference")
	input.ServiceInterestedIn = models.ServiceInterpretation
	p, err := env.prospects.Create(ctx, input)
	require.NoError(t, err)

	_, err = env.prospects.LogServiceCompletion(ctx, p.ID, CompletionInput{CompletedAt: date(2026, 2, 21), Subject: "Summit"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	result, err := env.prospects.LogServiceCompletion(ctx, p.ID, CompletionInput{
		CompletedAt:  date(2026, 2, 21),
		Subject:      "Summit",
		Duration:     decimal.RequireFromString("2.5"),
		DurationUnit: models.DurationHours,
		Rate:         decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)
	fee, _ := models.CompletionFee(result.Prospect.Service)
	assert.Equal(t, "0.25", fee.String())
}

func TestLogServiceCompletionRejectsTraining(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.prospects.Create(context.Background(), trainingInput("Tom"))
	require.NoError(t, err)

	_, err = env.prospects.LogServiceCompletion(context.Background(), p.ID, CompletionInput{})
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestConvertToStudentCreatesLinkedStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)

	result, err := env.prospects.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 14)))
	require.NoError(t, err)
	assert.Equal(t, "STU-140226-0001", result.Student.StudentID)
	require.NotNil(t, result.Student.ProspectID)
	assert.Equal(t, p.ID, *result.Student.ProspectID)
	assert.Equal(t, models.ProspectConverted, result.Prospect.Status)
	require.NotNil(t, result.Prospect.ConvertedAt)
	assert.Equal(t, date(2026, 2, 14), *result.Prospect.ConvertedAt)
	assert.Equal(t, date(2026, 2, 1), result.Prospect.DateOfContact)

	_, err = env.prospects.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 14)))
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestConvertToStudentRollsBackStudentWhenProspectUpdateFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	env.store.FailNext("prospects.update", errors.New("disk full"))

	_, err = env.prospects.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 14)))
	require.ErrorIs(t, err, appErrors.ErrInternal)

	students, err := env.repos.Students.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)

	stored, err := env.prospects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProspectInquired, stored.Status)
	assert.Nil(t, stored.StudentID)
	assert.NotContains(t, env.publisher.names(), events.StudentCreated)
}

// interleavedProspects runs between once, right after the first read.
type interleavedProspects struct {
	repository.ProspectStore
	once    sync.Once
	between func()
}

func (s *interleavedProspects) FindByID(ctx context.Context, id string) (*models.Prospect, error) {
	p, err := s.ProspectStore.FindByID(ctx, id)
	s.once.Do(s.between)
	return p, err
}

func TestConvertToStudentLosingRaceRemovesItsStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	env.publisher.reset()

	// Another instance sharing the store converts the prospect after this
	// one has read it as Inquired.
	var winner *ConversionResult
	wrapped := &interleavedProspects{ProspectStore: env.repos.Prospects, between: func() {
		var convErr error
		winner, convErr = env.prospects.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 14)))
		require.NoError(t, convErr)
	}}
	loser := NewProspectService(wrapped, env.students, StaticActorProvider{Actor: testActor}, env.publisher, NewMetricsService(), nil, nil)

	_, err = loser.ConvertToStudent(ctx, p.ID, studentInput("Tom", date(2026, 2, 15)))
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Equal(t, "prospect already converted", appErrors.FromError(err).Message)

	students, err := env.repos.Students.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, winner.Student.ID, students[0].ID)

	stored, err := env.prospects.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StudentID)
	assert.Equal(t, winner.Student.ID, *stored.StudentID)
	assert.Equal(t, []events.Name{events.StudentCreated, events.ProspectConverted}, env.publisher.names())
}

func TestLogServiceCompletionLosingRaceKeepsFirstCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, translationInput("Ines"))
	require.NoError(t, err)

	wrapped := &interleavedProspects{ProspectStore: env.repos.Prospects, between: func() {
		_, err := env.prospects.LogServiceCompletion(ctx, p.ID, CompletionInput{CompletedAt: date(2026, 2, 20), DocumentTitle: "Deed", Pages: 2, RatePerPage: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}}
	loser := NewProspectService(wrapped, env.students, StaticActorProvider{Actor: testActor}, env.publisher, NewMetricsService(), nil, nil)

	_, err = loser.LogServiceCompletion(ctx, p.ID, CompletionInput{CompletedAt: date(2026, 2, 21), DocumentTitle: "Will", Pages: 5, RatePerPage: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, appErrors.ErrInvalidState)

	stored, err := env.prospects.Get(ctx, p.ID)
	require.NoError(t, err)
	fee, ok := models.CompletionFee(stored.Service)
	require.True(t, ok)
	assert.True(t, fee.Equal(decimal.NewFromInt(200)))
}

func TestConvertToStudentRejectsNonTraining(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.prospects.Create(context.Background(), translationInput("Ines"))
	require.NoError(t, err)

	_, err = env.prospects.ConvertToStudent(context.Background(), p.ID, studentInput("Ines", date(2026, 2, 14)))
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestProspectUpdateServiceSwitchRequiresClearing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)

	change := translationInput("Tom")
	_, err = env.prospects.Update(ctx, p.ID, change)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	change.ClearServiceFields = true
	updated, err := env.prospects.Update(ctx, p.ID, change)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceDocTranslation, updated.ServiceType())
	_, isTraining := updated.Service.(models.TrainingService)
	assert.False(t, isTraining)
}

func TestProspectUpdateOfConvertedKeepsCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, translationInput("Ines"))
	require.NoError(t, err)
	_, err = env.prospects.LogServiceCompletion(ctx, p.ID, CompletionInput{CompletedAt: date(2026, 2, 20), DocumentTitle: "Deed", Pages: 2, RatePerPage: decimal.NewFromInt(100)})
	require.NoError(t, err)

	edit := translationInput("Ines Updated")
	updated, err := env.prospects.Update(ctx, p.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Ines Updated", updated.Name)
	assert.Equal(t, models.ProspectConverted, updated.Status)
	fee, ok := models.CompletionFee(updated.Service)
	require.True(t, ok)
	assert.True(t, fee.Equal(decimal.NewFromInt(200)))

	edit.TargetLanguage = "Spanish"
	_, err = env.prospects.Update(ctx, p.ID, edit)
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestProspectDeleteRemovesFollowUps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.prospects.Create(ctx, trainingInput("Tom"))
	require.NoError(t, err)
	_, err = env.tasks.CreateFollowUp(ctx, FollowUpInput{ProspectID: p.ID, DueDate: date(2026, 3, 1)})
	require.NoError(t, err)

	require.NoError(t, env.prospects.Delete(ctx, p.ID))
	_, err = env.prospects.Get(ctx, p.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	followUps, err := env.tasks.ListFollowUps(ctx, models.FollowUpFilter{})
	require.NoError(t, err)
	assert.Empty(t, followUps)

	require.ErrorIs(t, env.prospects.Delete(ctx, p.ID), appErrors.ErrNotFound)
}
