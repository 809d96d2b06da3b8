package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	"github.com/noah-isme/lingua-crm-api/internal/repository/memory"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

var testActor = models.Actor{ID: "user-1", Name: "Front Desk", Role: models.RoleStaff}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) names() []events.Name {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Name, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

// testEnv wires every service over one memory store.
type testEnv struct {
	store       *memory.Store
	repos       repository.Store
	publisher   *recordingPublisher
	students    *StudentService
	prospects   *ProspectService
	clients     *ClientService
	classes     *ClassService
	enrollments *EnrollmentService
	tasks       *TaskService
	finance     *FinanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	repos := store.Repositories()
	pub := &recordingPublisher{}
	actors := StaticActorProvider{Actor: testActor}
	metrics := NewMetricsService()

	env := &testEnv{store: store, repos: repos, publisher: pub}
	env.students = NewStudentService(repos.Students, repos.Sequences, actors, pub, metrics, nil, nil)
	env.prospects = NewProspectService(repos.Prospects, env.students, actors, pub, metrics, nil, nil)
	env.clients = NewClientService(repos.Prospects, repos.Students)
	env.classes = NewClassService(repos.Classes, repos.Students, actors, pub, metrics, nil, nil)
	env.enrollments = NewEnrollmentService(repos.Students, repos.Classes, actors, pub, metrics, nil)
	env.tasks = NewTaskService(repos.FollowUps, repos.Communications, repos.Prospects, actors, pub, metrics, nil, nil)
	env.finance = NewFinanceService(repos.Payments, repos.Expenditures, env.clients, actors, pub, metrics, nil, nil)
	return env
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func trainingInput(name string) ProspectInput {
	return ProspectInput{
		Name:                name,
		Email:               strPtr(name + "@example.com"),
		ContactMethod:       models.ContactWalkIn,
		DateOfContact:       date(2026, 2, 1),
		ServiceInterestedIn: models.ServiceLanguageTraining,
		TrainingLanguages:   []string{"French"},
	}
}

func translationInput(name string) ProspectInput {
	return ProspectInput{
		Name:                name,
		ContactMethod:       models.ContactEmail,
		DateOfContact:       date(2026, 2, 3),
		ServiceInterestedIn: models.ServiceDocTranslation,
		SourceLanguage:      "English",
		TargetLanguage:      "French",
	}
}

func studentInput(name string, registered time.Time) StudentInput {
	return StudentInput{Name: name, RegistrationDate: registered, ReferralSource: models.ReferralFriend}
}

func (e *testEnv) seedStudent(t *testing.T, name string) *models.Student {
	t.Helper()
	st, err := e.students.Create(context.Background(), studentInput(name, date(2026, 2, 10)))
	require.NoError(t, err)
	return st
}

func (e *testEnv) seedClass(t *testing.T, name string) *models.Class {
	t.Helper()
	c, err := e.classes.Create(context.Background(), ClassInput{Name: name, Language: "French", Level: "A1.1"})
	require.NoError(t, err)
	return c
}
