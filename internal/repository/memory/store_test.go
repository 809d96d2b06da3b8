package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

var actor = models.Actor{ID: "u1", Name: "Desk User"}

func seedClasses(t *testing.T, repo repository.ClassStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &models.Class{ID: id, Name: "Class " + id, Level: "A1.1"}))
	}
}

func seedStudents(t *testing.T, repo repository.StudentStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &models.Student{ID: id, StudentID: "STU-" + id, Name: id}))
	}
}

func TestProspectUpdateAndDeleteMissingReturnNotFound(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	err := repos.Prospects.Update(ctx, &models.Prospect{ID: "missing"})
	assert.True(t, repository.IsNotFound(err))
	assert.True(t, repository.IsNotFound(repos.Prospects.Delete(ctx, "missing")))

	_, err = repos.Prospects.FindByID(ctx, "missing")
	assert.True(t, repository.IsNotFound(err))
}

func TestProspectDeleteCascadesFollowUps(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "p1", Name: "Ada"}))
	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "p2", Name: "Bo"}))
	require.NoError(t, repos.FollowUps.Create(ctx, &models.FollowUpAction{ProspectID: "p1", Status: models.TaskPending}))
	require.NoError(t, repos.FollowUps.Create(ctx, &models.FollowUpAction{ProspectID: "p2", Status: models.TaskPending}))

	require.NoError(t, repos.Prospects.Delete(ctx, "p1"))

	all, err := repos.FollowUps.List(ctx, models.FollowUpFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "p2", all[0].ProspectID)
}

func TestProspectRecordsAreCopied(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	p := &models.Prospect{ID: "p1", Name: "Ada", Service: models.TrainingService{Languages: []string{"French"}}}
	require.NoError(t, repos.Prospects.Create(ctx, p))
	p.Name = "changed"

	got, err := repos.Prospects.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	training := got.Service.(models.TrainingService)
	training.Languages[0] = "German"
	again, err := repos.Prospects.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"French"}, again.Service.(models.TrainingService).Languages)
}

func TestProspectSearchFiltersAndOrders(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	converted := now.AddDate(0, 0, -1)

	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "old", Name: "Old", Status: models.ProspectInquired, DateOfContact: now.AddDate(0, 0, -30), ContactMethod: models.ContactEmail}))
	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "new", Name: "New", Status: models.ProspectInquired, DateOfContact: now.AddDate(0, 0, -2), ContactMethod: models.ContactPhone}))
	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "done", Name: "Done", Status: models.ProspectConverted, DateOfContact: now.AddDate(0, 0, -60), ConvertedAt: &converted}))

	active, err := repos.Prospects.Search(ctx, models.ProspectFilter{Status: models.ProspectInquired, Now: now})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "new", active[0].ID)

	recent, err := repos.Prospects.Search(ctx, models.ProspectFilter{Window: timewindow.Last7d, Now: now})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "done", recent[0].ID)

	byMethod, err := repos.Prospects.Search(ctx, models.ProspectFilter{ContactMethod: models.ContactEmail, Now: now})
	require.NoError(t, err)
	require.Len(t, byMethod, 1)
	assert.Equal(t, "old", byMethod[0].ID)

	bySearch, err := repos.Prospects.Search(ctx, models.ProspectFilter{Search: "DON", Now: now})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
}

func TestApplyRosterDelta(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1", "c2", "c3", "c4")
	seedStudents(t, repos.Students, "s1", "s2")

	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1", "c2"}, nil, actor))
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s2", []string{"c4"}, nil, actor))
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c3", "c1"}, []string{"c2"}, actor))

	classes, err := repos.Classes.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	ids := []string{}
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"c1", "c3"}, ids)

	c1, err := repos.Classes.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, c1.StudentIDs)
	assert.Equal(t, "Desk User", c1.UpdatedByName)

	c4, err := repos.Classes.FindByID(ctx, "c4")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, c4.StudentIDs)
}

func TestApplyRosterDeltaIsAllOrNothing(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1", "c2")
	seedStudents(t, repos.Students, "s1", "s2")
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c2"}, nil, actor))

	err := repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1", "gone"}, []string{"c2"}, actor)
	assert.True(t, repository.IsNotFound(err))

	c1, _ := repos.Classes.FindByID(ctx, "c1")
	c2, _ := repos.Classes.FindByID(ctx, "c2")
	assert.Empty(t, c1.StudentIDs)
	assert.Equal(t, []string{"s1"}, c2.StudentIDs)
}

func TestApplyRosterDeltaInjectedFailureLeavesRostersUntouched(t *testing.T) {
	store := New()
	repos := store.Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1")
	seedStudents(t, repos.Students, "s1", "s2")

	store.FailNext("classes.roster", errors.New("disk full"))
	require.Error(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1"}, nil, actor))

	c1, _ := repos.Classes.FindByID(ctx, "c1")
	assert.Empty(t, c1.StudentIDs)
}

func TestClassUpdateKeepsRoster(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1")
	seedStudents(t, repos.Students, "s1", "s2")
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1"}, nil, actor))

	require.NoError(t, repos.Classes.Update(ctx, &models.Class{ID: "c1", Name: "Renamed"}))
	c1, err := repos.Classes.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", c1.Name)
	assert.Equal(t, []string{"s1"}, c1.StudentIDs)
}

func TestRosterWritesRequireExistingStudent(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1")
	seedStudents(t, repos.Students, "s1")

	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1"}, nil, actor))
	require.NoError(t, repos.Students.Delete(ctx, "s1"))

	assert.True(t, repository.IsNotFound(repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1"}, nil, actor)))
	_, err := repos.Classes.SetStudentClasses(ctx, "s1", []string{"c1"}, actor)
	assert.True(t, repository.IsNotFound(err))

	c1, err := repos.Classes.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, c1.StudentIDs)
}

func TestSetStudentClassesWritesDifference(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	seedClasses(t, repos.Classes, "c1", "c2", "c3")
	seedStudents(t, repos.Students, "s1", "s2")
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s1", []string{"c1", "c2"}, nil, actor))
	require.NoError(t, repos.Classes.ApplyRosterDelta(ctx, "s2", []string{"c2"}, nil, actor))

	change, err := repos.Classes.SetStudentClasses(ctx, "s1", []string{"c1", "c3"}, actor)
	require.NoError(t, err)
	assert.Equal(t, []string{"c3"}, change.Added)
	assert.Equal(t, []string{"c2"}, change.Removed)

	c2, err := repos.Classes.FindByID(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, c2.StudentIDs)

	again, err := repos.Classes.SetStudentClasses(ctx, "s1", []string{"c1", "c3"}, actor)
	require.NoError(t, err)
	assert.True(t, again.Empty())

	_, err = repos.Classes.SetStudentClasses(ctx, "s1", []string{"gone"}, actor)
	assert.True(t, repository.IsNotFound(err))
}

func TestMarkConvertedOnlyFromInquired(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Prospects.Create(ctx, &models.Prospect{ID: "p1", Name: "Ada", Status: models.ProspectInquired}))

	first := &models.Prospect{ID: "p1", Name: "Ada", Status: models.ProspectConverted, StudentID: strPtr("s1")}
	require.NoError(t, repos.Prospects.MarkConverted(ctx, first))

	second := &models.Prospect{ID: "p1", Name: "Ada", Status: models.ProspectConverted, StudentID: strPtr("s2")}
	assert.True(t, repository.IsStale(repos.Prospects.MarkConverted(ctx, second)))
	assert.True(t, repository.IsNotFound(repos.Prospects.MarkConverted(ctx, &models.Prospect{ID: "gone"})))

	stored, err := repos.Prospects.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", *stored.StudentID)
}

func TestTaskUpdatesRejectCompletedRecords(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	followUp := &models.FollowUpAction{ProspectID: "p1", Status: models.TaskPending}
	require.NoError(t, repos.FollowUps.Create(ctx, followUp))
	followUp.Status = models.TaskCompleted
	require.NoError(t, repos.FollowUps.Update(ctx, followUp))
	followUp.Status = models.TaskPending
	assert.True(t, repository.IsStale(repos.FollowUps.Update(ctx, followUp)))

	comm := &models.Communication{Title: "Order books", Status: models.TaskPending}
	require.NoError(t, repos.Communications.Create(ctx, comm))
	comm.Status = models.TaskCompleted
	require.NoError(t, repos.Communications.Update(ctx, comm))
	assert.True(t, repository.IsStale(repos.Communications.Update(ctx, comm)))

	stored, err := repos.FollowUps.FindByID(ctx, followUp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, stored.Status)
}

func strPtr(s string) *string { return &s }

func TestStudentCreateRejectsDuplicateStudentID(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	require.NoError(t, repos.Students.Create(ctx, &models.Student{StudentID: "STU-010124-0001", Name: "A"}))
	err := repos.Students.Create(ctx, &models.Student{StudentID: "STU-010124-0001", Name: "B"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSequenceIsUniqueUnderConcurrency(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repos.Sequences.NextStudentSequence(ctx, 2024)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)

	other, err := repos.Sequences.NextStudentSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestReportJobUpdateAndListQueued(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	job := &models.ReportJob{Type: models.ReportTypePayments, Status: models.ReportStatusQueued}
	require.NoError(t, repos.ReportJobs.Create(ctx, job))

	queued, err := repos.ReportJobs.ListQueued(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	finished := models.ReportStatusFinished
	url := "/reports/download/token"
	require.NoError(t, repos.ReportJobs.Update(ctx, job.ID, models.ReportJobUpdate{Status: &finished, ResultURL: &url}))

	got, err := repos.ReportJobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, finished, got.Status)
	assert.Equal(t, url, *got.ResultURL)

	queued, err = repos.ReportJobs.ListQueued(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, queued)
}
