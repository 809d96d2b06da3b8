package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

// storeError maps a store failure to the API taxonomy: missing records become
// not-found, everything else is an internal error.
func storeError(err error, notFound, action string) error {
	if repository.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

// guardedError maps a conditional write that lost a race to an invalid-state
// error and defers to storeError otherwise.
func guardedError(err error, notFound, stale, action string) error {
	if repository.IsStale(err) {
		return appErrors.Clone(appErrors.ErrInvalidState, stale)
	}
	return storeError(err, notFound, action)
}

func internalError(err error, action string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

// publish emits a domain event. Encoding problems are logged; they never fail
// the mutation that already committed.
func publish(ctx context.Context, publisher events.Publisher, metrics *MetricsService, logger *zap.Logger, name events.Name, payload interface{}) {
	if publisher == nil {
		return
	}
	evt, err := events.New(name, payload)
	if err != nil {
		logger.Warn("failed to build event", zap.String("event", string(name)), zap.Error(err))
		return
	}
	publisher.Publish(ctx, evt)
	metrics.RecordEvent(string(name))
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func systemClock() time.Time {
	return time.Now().UTC()
}
