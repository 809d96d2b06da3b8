package memory

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// FollowUpRepository is the memory FollowUpStore.
type FollowUpRepository struct{ s *Store }

// Create stores a follow-up.
func (r *FollowUpRepository) Create(ctx context.Context, followUp *models.FollowUpAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("followups.create"); err != nil {
		return err
	}
	followUp.ID = newID(followUp.ID)
	r.s.followUps[followUp.ID] = followUp.Clone()
	return nil
}

// FindByID returns a copy of the follow-up.
func (r *FollowUpRepository) FindByID(ctx context.Context, id string) (*models.FollowUpAction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.followUps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.Clone(), nil
}

// Update replaces an existing follow-up while it is still pending.
func (r *FollowUpRepository) Update(ctx context.Context, followUp *models.FollowUpAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("followups.update"); err != nil {
		return err
	}
	existing, ok := r.s.followUps[followUp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status == models.TaskCompleted {
		return repository.ErrStale
	}
	r.s.followUps[followUp.ID] = followUp.Clone()
	return nil
}

// Delete removes a follow-up.
func (r *FollowUpRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.followUps[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.followUps, id)
	return nil
}

// List returns follow-ups ordered by due date.
func (r *FollowUpRepository) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUpAction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.FollowUpAction, 0, len(r.s.followUps))
	for _, f := range r.s.followUps {
		if filter.ProspectID != "" && f.ProspectID != filter.ProspectID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Assignee != "" && f.Assignee != filter.Assignee {
			continue
		}
		out = append(out, *f.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

// CommunicationRepository is the memory CommunicationStore.
type CommunicationRepository struct{ s *Store }

// Create stores a communication.
func (r *CommunicationRepository) Create(ctx context.Context, communication *models.Communication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("communications.create"); err != nil {
		return err
	}
	communication.ID = newID(communication.ID)
	r.s.communications[communication.ID] = communication.Clone()
	return nil
}

// FindByID returns a copy of the communication.
func (r *CommunicationRepository) FindByID(ctx context.Context, id string) (*models.Communication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.communications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

// Update replaces an existing communication while it is still pending.
func (r *CommunicationRepository) Update(ctx context.Context, communication *models.Communication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("communications.update"); err != nil {
		return err
	}
	existing, ok := r.s.communications[communication.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status == models.TaskCompleted {
		return repository.ErrStale
	}
	r.s.communications[communication.ID] = communication.Clone()
	return nil
}

// Delete removes a communication.
func (r *CommunicationRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.communications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.communications, id)
	return nil
}

// List returns communications ordered by due date.
func (r *CommunicationRepository) List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Communication, 0, len(r.s.communications))
	for _, c := range r.s.communications {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && c.Priority != filter.Priority {
			continue
		}
		if filter.Assignee != "" && c.Assignee != filter.Assignee {
			continue
		}
		if !containsFold(filter.Search, c.Title, c.Description, c.Notes) {
			continue
		}
		out = append(out, *c.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

// PaymentRepository is the memory PaymentStore.
type PaymentRepository struct{ s *Store }

// Create stores a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("payments.create"); err != nil {
		return err
	}
	payment.ID = newID(payment.ID)
	r.s.payments[payment.ID] = payment.Clone()
	return nil
}

// FindByID returns a copy of the payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("payments.update"); err != nil {
		return err
	}
	if _, ok := r.s.payments[payment.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.payments[payment.ID] = payment.Clone()
	return nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.payments, id)
	return nil
}

// Search filters payments and orders them newest first.
func (r *PaymentRepository) Search(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	r.s.mu.RLock()
	items := make([]models.Payment, 0, len(r.s.payments))
	for _, p := range r.s.payments {
		if filter.ClientID != "" && p.ClientID != filter.ClientID {
			continue
		}
		if filter.Currency != "" && p.Currency != filter.Currency {
			continue
		}
		if filter.Method != "" && p.Method != filter.Method {
			continue
		}
		if !containsFold(filter.Search, p.Reference, p.Notes, p.ClientID) {
			continue
		}
		items = append(items, *p.Clone())
	}
	r.s.mu.RUnlock()

	items = timewindow.Filter(items, func(p models.Payment) (time.Time, bool) { return p.Date, true },
		filter.Window, filter.Custom, nowOr(filter.Now))
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Date.After(items[j].Date)
	})
	return items, nil
}

// ExpenditureRepository is the memory ExpenditureStore.
type ExpenditureRepository struct{ s *Store }

// Create stores an expenditure.
func (r *ExpenditureRepository) Create(ctx context.Context, expenditure *models.Expenditure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("expenditures.create"); err != nil {
		return err
	}
	expenditure.ID = newID(expenditure.ID)
	r.s.expenditures[expenditure.ID] = expenditure.Clone()
	return nil
}

// FindByID returns a copy of the expenditure.
func (r *ExpenditureRepository) FindByID(ctx context.Context, id string) (*models.Expenditure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenditures[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.Clone(), nil
}

// Update replaces an existing expenditure.
func (r *ExpenditureRepository) Update(ctx context.Context, expenditure *models.Expenditure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("expenditures.update"); err != nil {
		return err
	}
	if _, ok := r.s.expenditures[expenditure.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.expenditures[expenditure.ID] = expenditure.Clone()
	return nil
}

// Delete removes an expenditure.
func (r *ExpenditureRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenditures[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.expenditures, id)
	return nil
}

// Search filters expenditures and orders them newest first.
func (r *ExpenditureRepository) Search(ctx context.Context, filter models.ExpenditureFilter) ([]models.Expenditure, error) {
	r.s.mu.RLock()
	items := make([]models.Expenditure, 0, len(r.s.expenditures))
	for _, e := range r.s.expenditures {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Currency != "" && e.Currency != filter.Currency {
			continue
		}
		if filter.Method != "" && e.Method != filter.Method {
			continue
		}
		if !containsFold(filter.Search, e.Payee, e.Category, e.Description) {
			continue
		}
		items = append(items, *e.Clone())
	}
	r.s.mu.RUnlock()

	items = timewindow.Filter(items, func(e models.Expenditure) (time.Time, bool) { return e.Date, true },
		filter.Window, filter.Custom, nowOr(filter.Now))
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Date.After(items[j].Date)
	})
	return items, nil
}

// ReportJobRepository is the memory ReportJobStore.
type ReportJobRepository struct{ s *Store }

// Create stores a report job.
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job.ID = newID(job.ID)
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.s.reportJobs[job.ID] = job.Clone()
	return nil
}

// GetByID returns a copy of the job.
func (r *ReportJobRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.reportJobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies the non-nil fields of update.
func (r *ReportJobRepository) Update(ctx context.Context, id string, update models.ReportJobUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.reportJobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.ResultURL != nil {
		v := *update.ResultURL
		job.ResultURL = &v
	}
	if update.ErrorMessage != nil {
		v := *update.ErrorMessage
		job.ErrorMessage = &v
	}
	if update.FinishedAt != nil {
		v := *update.FinishedAt
		job.FinishedAt = &v
	}
	return nil
}

// ListQueued returns up to limit queued jobs, oldest first.
func (r *ReportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.ReportJob, 0)
	for _, job := range r.s.reportJobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListFinishedBefore returns up to limit finished jobs completed before cutoff.
func (r *ReportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.ReportJob, 0)
	for _, job := range r.s.reportJobs {
		if job.Status == models.ReportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.Before(*out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
