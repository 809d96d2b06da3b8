package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/dto"
	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

const dashboardCachePattern = "dashboard:*"

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL  time.Duration
	TaskLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Prospects      repository.ProspectStore
	Students       repository.StudentStore
	Payments       repository.PaymentStore
	Expenditures   repository.ExpenditureStore
	FollowUps      repository.FollowUpStore
	Communications repository.CommunicationStore
	Cache          *CacheService
	Logger         *zap.Logger
	Config         DashboardServiceConfig
}

// DashboardService composes period-over-period summaries.
type DashboardService struct {
	prospects      repository.ProspectStore
	students       repository.StudentStore
	payments       repository.PaymentStore
	expenditures   repository.ExpenditureStore
	followUps      repository.FollowUpStore
	communications repository.CommunicationStore
	cache          *CacheService
	logger         *zap.Logger
	now            func() time.Time
	cfg            DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.TaskLimit <= 0 {
		cfg.TaskLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		prospects:      params.Prospects,
		students:       params.Students,
		payments:       params.Payments,
		expenditures:   params.Expenditures,
		followUps:      params.FollowUps,
		communications: params.Communications,
		cache:          params.Cache,
		logger:         logger,
		now:            systemClock,
		cfg:            cfg,
	}
}

// Summary returns the dashboard for a window and reports whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context, window timewindow.Window, custom *timewindow.Range) (*dto.DashboardSummary, bool, error) {
	if !window.Valid() {
		return nil, false, appErrors.Invalid("invalid dashboard query", appErrors.Field("window", "unknown window"))
	}
	if window == timewindow.Custom && custom != nil {
		if err := custom.Validate(); err != nil {
			return nil, false, appErrors.Invalid("invalid dashboard query", appErrors.Field("custom", err.Error()))
		}
	}
	key := dashboardCacheKey(window, custom)
	var cached dto.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx, window, custom, s.now())
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}

// InvalidateOnChange drops cached summaries whenever a domain event arrives.
// It returns the unsubscribe function.
func (s *DashboardService) InvalidateOnChange(bus *events.Bus) func() {
	return bus.SubscribeAll(func(ctx context.Context, evt events.Event) {
		if evt.Name == events.ReportFinished {
			return
		}
		_ = s.cache.Invalidate(context.WithoutCancel(ctx), dashboardCachePattern)
	})
}

func dashboardCacheKey(window timewindow.Window, custom *timewindow.Range) string {
	if window == timewindow.Custom && custom != nil {
		return fmt.Sprintf("dashboard:%s:%s:%s", window, custom.Start.Format("2006-01-02"), custom.End.Format("2006-01-02"))
	}
	return fmt.Sprintf("dashboard:%s", window)
}

func (s *DashboardService) compose(ctx context.Context, window timewindow.Window, custom *timewindow.Range, now time.Time) (*dto.DashboardSummary, error) {
	prospects, err := s.prospects.Search(ctx, models.ProspectFilter{})
	if err != nil {
		return nil, internalError(err, "load prospects")
	}
	students, err := s.students.List(ctx, models.StudentFilter{})
	if err != nil {
		return nil, internalError(err, "load students")
	}
	payments, err := s.payments.Search(ctx, models.PaymentFilter{})
	if err != nil {
		return nil, internalError(err, "load payments")
	}
	expenditures, err := s.expenditures.Search(ctx, models.ExpenditureFilter{})
	if err != nil {
		return nil, internalError(err, "load expenditures")
	}
	followUps, err := s.followUps.List(ctx, models.FollowUpFilter{Status: models.TaskPending})
	if err != nil {
		return nil, internalError(err, "load follow-ups")
	}
	comms, err := s.communications.List(ctx, models.CommunicationFilter{Status: models.TaskPending})
	if err != nil {
		return nil, internalError(err, "load communications")
	}

	summary := &dto.DashboardSummary{
		Window:      window,
		GeneratedAt: now,
		Prospects:   prospectSection(prospects, window, custom, now),
		Students: timewindow.CountDelta(students, func(st models.Student) (time.Time, bool) {
			return st.RegistrationDate, true
		}, window, custom, now),
		Finance:      financeSections(payments, expenditures, window, custom, now),
		Tasks:        taskSection(followUps, comms, now, s.cfg.TaskLimit),
		ServiceSplit: serviceSplit(prospects, window, custom, now),
	}
	return summary, nil
}

func prospectSection(prospects []models.Prospect, window timewindow.Window, custom *timewindow.Range, now time.Time) dto.ProspectSection {
	contacted := func(p models.Prospect) (time.Time, bool) { return p.DateOfContact, true }
	converted := func(p models.Prospect) (time.Time, bool) {
		if !p.Converted() || p.ConvertedAt == nil {
			return time.Time{}, false
		}
		return *p.ConvertedAt, true
	}
	active := 0
	for _, p := range prospects {
		if !p.Converted() {
			active++
		}
	}
	return dto.ProspectSection{
		NewProspects: timewindow.CountDelta(prospects, contacted, window, custom, now),
		Conversions:  timewindow.CountDelta(prospects, converted, window, custom, now),
		Active:       active,
	}
}

func serviceSplit(prospects []models.Prospect, window timewindow.Window, custom *timewindow.Range, now time.Time) []dto.ServiceCount {
	inWindow := timewindow.Filter(prospects, func(p models.Prospect) (time.Time, bool) { return p.DateOfContact, true }, window, custom, now)
	counts := map[models.ServiceType]int{}
	for _, p := range inWindow {
		counts[p.ServiceType()]++
	}
	out := make([]dto.ServiceCount, 0, 3)
	for _, svc := range []models.ServiceType{models.ServiceLanguageTraining, models.ServiceDocTranslation, models.ServiceInterpretation} {
		out = append(out, dto.ServiceCount{Service: svc, Count: counts[svc]})
	}
	return out
}

func financeSections(payments []models.Payment, expenditures []models.Expenditure, window timewindow.Window, custom *timewindow.Range, now time.Time) []dto.CurrencySection {
	paidOn := func(p models.Payment) (time.Time, bool) { return p.Date, true }
	spentOn := func(e models.Expenditure) (time.Time, bool) { return e.Date, true }
	paymentAmount := func(p models.Payment) (models.Currency, decimal.Decimal) { return p.Currency, p.Amount }
	expenditureAmount := func(e models.Expenditure) (models.Currency, decimal.Decimal) { return e.Currency, e.Amount }

	revenueNow := SumByCurrency(timewindow.Filter(payments, paidOn, window, custom, now), paymentAmount)
	revenueBefore := SumByCurrency(timewindow.PreviousPeriod(payments, paidOn, window, custom, now), paymentAmount)
	spentNow := SumByCurrency(timewindow.Filter(expenditures, spentOn, window, custom, now), expenditureAmount)
	spentBefore := SumByCurrency(timewindow.PreviousPeriod(expenditures, spentOn, window, custom, now), expenditureAmount)

	sections := make([]dto.CurrencySection, 0, len(models.Currencies))
	for _, currency := range models.Currencies {
		section := dto.CurrencySection{
			Currency:     currency,
			Revenue:      moneyDelta(revenueNow[currency], revenueBefore[currency]),
			Expenditures: moneyDelta(spentNow[currency], spentBefore[currency]),
			Net: moneyDelta(
				revenueNow[currency].Sub(spentNow[currency]),
				revenueBefore[currency].Sub(spentBefore[currency]),
			),
		}
		if section.Revenue.Current.IsZero() && section.Revenue.Previous.IsZero() &&
			section.Expenditures.Current.IsZero() && section.Expenditures.Previous.IsZero() {
			continue
		}
		sections = append(sections, section)
	}
	return sections
}

func moneyDelta(current, previous decimal.Decimal) dto.MoneyDelta {
	return dto.MoneyDelta{
		Current:   current,
		Previous:  previous,
		ChangePct: timewindow.PercentageChange(current.InexactFloat64(), previous.InexactFloat64()),
	}
}

func taskSection(followUps []models.FollowUpAction, comms []models.Communication, now time.Time, limit int) dto.TaskSection {
	feed := MergeTaskFeed(followUps, comms, now, models.TaskFeedFilter{})
	section := dto.TaskSection{Next: []models.TaskItem{}}
	for _, item := range feed {
		switch item.Urgency {
		case models.UrgencyOverdue:
			section.Overdue++
		case models.UrgencyDueToday:
			section.DueToday++
		case models.UrgencyUpcoming:
			section.Upcoming++
		}
	}
	if len(feed) > limit {
		feed = feed[:limit]
	}
	section.Next = append(section.Next, feed...)
	return section
}
