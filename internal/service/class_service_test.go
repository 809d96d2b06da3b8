package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
)

func TestClassCreateValidatesScheduleAndLevel(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.classes.Create(context.Background(), ClassInput{
		Name:     "French A1",
		Language: "French",
		Level:    "D9",
		Schedule: []models.ScheduleSession{{Day: models.Monday, StartTime: "10:00", EndTime: "09:00"}},
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	details := appErrors.FromError(err).Details
	require.Len(t, details, 2)
	assert.Equal(t, "level", details[0].Field)
	assert.Equal(t, "schedule[0]", details[1].Field)
}

func TestClassCreateWithRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	st := env.seedStudent(t, "Ana")

	_, err := env.classes.Create(ctx, ClassInput{Name: "French A1", Language: "French", Level: "A1.1", StudentIDs: []string{st.ID, "ghost"}})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	class, err := env.classes.Create(ctx, ClassInput{
		Name:       "French A1",
		Language:   "French",
		Level:      "A1.1",
		Schedule:   []models.ScheduleSession{{Day: models.Tuesday, StartTime: "18:00", EndTime: "19:30"}},
		StudentIDs: []string{st.ID, st.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{st.ID}, class.StudentIDs)

	roster, err := env.classes.Roster(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, st.StudentID, roster[0].StudentID)
}

func TestClassUpdateKeepsRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	st := env.seedStudent(t, "Ana")
	class := env.seedClass(t, "French A1")
	_, err := env.enrollments.AssignStudentToClass(ctx, st.ID, class.ID)
	require.NoError(t, err)

	updated, err := env.classes.Update(ctx, class.ID, ClassInput{Name: "French A1 evening", Language: "French", Level: "A1.2"})
	require.NoError(t, err)
	assert.Equal(t, "French A1 evening", updated.Name)

	reloaded, err := env.classes.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{st.ID}, reloaded.StudentIDs)
	assert.Equal(t, models.Level("A1.2"), reloaded.Level)
}

func TestClassDeleteUnenrolls(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	st := env.seedStudent(t, "Ana")
	class := env.seedClass(t, "French A1")
	_, err := env.enrollments.AssignStudentToClass(ctx, st.ID, class.ID)
	require.NoError(t, err)

	require.NoError(t, env.classes.Delete(ctx, class.ID))
	classes, err := env.enrollments.StudentClasses(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, classes)

	_, err = env.classes.Get(ctx, class.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestClassListFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	env.seedClass(t, "French A1")
	env.seedClass(t, "French A2")
	_, err := env.classes.Create(context.Background(), ClassInput{Name: "English B1", Language: "English", Level: "B1.1"})
	require.NoError(t, err)

	items, meta, err := env.classes.List(context.Background(), models.ClassFilter{Language: "French"})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalCount)
	assert.Equal(t, "French A1", items[0].Name)
}
