package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

func TestFormatStudentID(t *testing.T) {
	assert.Equal(t, "STU-050326-0042", FormatStudentID(date(2026, 3, 5), 42))
	assert.Equal(t, "STU-311226-12345", FormatStudentID(date(2026, 12, 31), 12345))
}

func TestStudentCreateAnnouncesOnlyAfterRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.students.Register(ctx, testActor, studentInput("Ana", date(2026, 2, 10)), nil)
	require.NoError(t, err)
	assert.Empty(t, env.publisher.names())

	_, err = env.students.Create(ctx, studentInput("Ben", date(2026, 2, 10)))
	require.NoError(t, err)
	assert.Equal(t, []events.Name{events.StudentCreated}, env.publisher.names())
}

func TestStudentCreateValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := studentInput("Ana", date(2026, 2, 10))
	input.ReferralSource = "Billboard"
	_, err := env.students.Create(ctx, input)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	input = studentInput("Ana", date(2026, 2, 10))
	input.TotalFees = decimal.NewFromInt(-1)
	_, err = env.students.Create(ctx, input)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	born := date(2027, 1, 1)
	input = studentInput("Ana", date(2026, 2, 10))
	input.DateOfBirth = &born
	_, err = env.students.Create(ctx, input)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentReferralOtherOnlyKeptForOther(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := studentInput("Ana", date(2026, 2, 10))
	input.ReferralOther = "Radio"
	st, err := env.students.Create(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, st.ReferralOther)

	input.ReferralSource = models.ReferralOther
	st, err = env.students.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Radio", st.ReferralOther)
}

func TestConcurrentRegistrationsGetUniqueIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 20
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := env.students.Create(ctx, studentInput("Concurrent", date(2026, 4, 1)))
			if err == nil {
				ids <- st.StudentID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestStudentUpdateKeepsStudentID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	st := env.seedStudent(t, "Ana")

	input := studentInput("Ana Maria", date(2027, 1, 5))
	updated, err := env.students.Update(ctx, st.ID, input)
	require.NoError(t, err)
	assert.Equal(t, st.StudentID, updated.StudentID)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, st.CreatedAt, updated.CreatedAt)

	_, err = env.students.Update(ctx, "missing", input)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentDeleteDropsRosterEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	st := env.seedStudent(t, "Ana")
	class := env.seedClass(t, "French A1")
	_, err := env.enrollments.AssignStudentToClass(ctx, st.ID, class.ID)
	require.NoError(t, err)

	require.NoError(t, env.students.Delete(ctx, st.ID))

	reloaded, err := env.classes.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.StudentIDs)
}

func TestStudentListPaginates(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"A", "B", "C"} {
		env.seedStudent(t, name)
	}

	page, meta, err := env.students.List(context.Background(), models.StudentFilter{PageRequest: models.PageRequest{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, meta)
}
