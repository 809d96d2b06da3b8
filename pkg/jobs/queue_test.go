package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("reports", QueueConfig{})
	q.Handle(KindReportExport, func(context.Context, Job) error { return nil })
	require.Error(t, q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}))
}

func TestQueueRejectsUnknownKind(t *testing.T) {
	q := NewQueue("reports", QueueConfig{})
	q.Handle(KindReportExport, func(context.Context, Job) error { return nil })
	q.Start(context.Background())
	defer q.Stop()

	err := q.Enqueue(Job{ID: "sweep", Kind: KindExportSweep})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestQueueRoutesByKind(t *testing.T) {
	var mu sync.Mutex
	seen := map[Kind][]string{}
	record := func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.Kind] = append(seen[job.Kind], job.ID+"/"+job.Dataset)
		mu.Unlock()
		return nil
	}
	q := NewQueue("reports", QueueConfig{Workers: 2})
	q.Handle(KindReportExport, record)
	q.Handle(KindExportSweep, record)
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Kind: KindReportExport, Dataset: "payments"}))
	require.NoError(t, q.Enqueue(Job{ID: "b", Kind: KindReportExport, Dataset: "expenditures"}))
	require.NoError(t, q.Enqueue(Job{ID: "exports", Kind: KindExportSweep}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen[KindReportExport]) == 2 && len(seen[KindExportSweep]) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.ElementsMatch(t, []string{"a/payments", "b/expenditures"}, seen[KindReportExport])
	mu.Unlock()
}

func TestQueueSkipsDuplicatePendingJob(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	q := NewQueue("reports", QueueConfig{})
	q.Handle(KindReportExport, func(context.Context, Job) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}))
	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}))
	close(release)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	// Once finished the same record can be queued again.
	require.Eventually(t, func() bool {
		return q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}) == nil && atomic.LoadInt32(&runs) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesWithAttemptCount(t *testing.T) {
	attempts := make(chan int, 5)
	q := NewQueue("reports", QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Handle(KindReportExport, func(_ context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt < 2 {
			return errors.New("storage unavailable")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}))
	for want := 0; want <= 2; want++ {
		select {
		case got := <-attempts:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("attempt %d not delivered", want)
		}
	}
}

func TestQueueDoesNotRetryPermanentFailure(t *testing.T) {
	var runs int32
	q := NewQueue("reports", QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Handle(KindReportExport, func(context.Context, Job) error {
		atomic.AddInt32(&runs, 1)
		return Permanent(errors.New("report job deleted"))
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: KindReportExport}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestPermanentWrapsCause(t *testing.T) {
	cause := errors.New("gone")
	err := Permanent(cause)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))
	assert.Nil(t, Permanent(nil))
}
