// Package memory is the embedded implementation of the data store contract.
// All collections share one lock so multi-record operations such as roster
// deltas and cascading deletes are applied in a single critical section.
// Records are deep-copied on the way in and out.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// Store holds every collection in process memory.
type Store struct {
	mu sync.RWMutex

	prospects      map[string]*models.Prospect
	students       map[string]*models.Student
	classes        map[string]*models.Class
	followUps      map[string]*models.FollowUpAction
	communications map[string]*models.Communication
	payments       map[string]*models.Payment
	expenditures   map[string]*models.Expenditure
	reportJobs     map[string]*models.ReportJob
	sequences      map[int]int64

	// failNext lets tests inject a storage failure into the next write.
	failNext map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		prospects:      make(map[string]*models.Prospect),
		students:       make(map[string]*models.Student),
		classes:        make(map[string]*models.Class),
		followUps:      make(map[string]*models.FollowUpAction),
		communications: make(map[string]*models.Communication),
		payments:       make(map[string]*models.Payment),
		expenditures:   make(map[string]*models.Expenditure),
		reportJobs:     make(map[string]*models.ReportJob),
		sequences:      make(map[int]int64),
		failNext:       make(map[string]error),
	}
}

// Repositories exposes the store through the contract interfaces.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Prospects:      &ProspectRepository{s: s},
		Students:       &StudentRepository{s: s},
		Classes:        &ClassRepository{s: s},
		FollowUps:      &FollowUpRepository{s: s},
		Communications: &CommunicationRepository{s: s},
		Payments:       &PaymentRepository{s: s},
		Expenditures:   &ExpenditureRepository{s: s},
		Sequences:      &SequenceRepository{s: s},
		ReportJobs:     &ReportJobRepository{s: s},
	}
}

// FailNext makes the next write named op (e.g. "prospects.update") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

// injected must be called with the write lock held.
func (s *Store) injected(op string) error {
	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}
	return nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ProspectRepository is the memory ProspectStore.
type ProspectRepository struct{ s *Store }

// Create stores a new prospect.
func (r *ProspectRepository) Create(ctx context.Context, prospect *models.Prospect) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("prospects.create"); err != nil {
		return err
	}
	prospect.ID = newID(prospect.ID)
	r.s.prospects[prospect.ID] = prospect.Clone()
	return nil
}

// FindByID returns a copy of the prospect.
func (r *ProspectRepository) FindByID(ctx context.Context, id string) (*models.Prospect, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prospects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces an existing prospect.
func (r *ProspectRepository) Update(ctx context.Context, prospect *models.Prospect) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("prospects.update"); err != nil {
		return err
	}
	if _, ok := r.s.prospects[prospect.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.prospects[prospect.ID] = prospect.Clone()
	return nil
}

// MarkConverted replaces the prospect only while it is still Inquired.
func (r *ProspectRepository) MarkConverted(ctx context.Context, prospect *models.Prospect) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("prospects.update"); err != nil {
		return err
	}
	existing, ok := r.s.prospects[prospect.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != models.ProspectInquired {
		return repository.ErrStale
	}
	r.s.prospects[prospect.ID] = prospect.Clone()
	return nil
}

// Delete removes the prospect and cascades its follow-ups.
func (r *ProspectRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("prospects.delete"); err != nil {
		return err
	}
	if _, ok := r.s.prospects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.prospects, id)
	for fid, f := range r.s.followUps {
		if f.ProspectID == id {
			delete(r.s.followUps, fid)
		}
	}
	return nil
}

// Search filters prospects and orders them newest first.
func (r *ProspectRepository) Search(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error) {
	r.s.mu.RLock()
	items := make([]models.Prospect, 0, len(r.s.prospects))
	for _, p := range r.s.prospects {
		if filter.ContactMethod != "" && p.ContactMethod != filter.ContactMethod {
			continue
		}
		if filter.ServiceType != "" && p.ServiceType() != filter.ServiceType {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !containsFold(filter.Search, p.Name, deref(p.Email), deref(p.Phone), p.Notes) {
			continue
		}
		items = append(items, *p.Clone())
	}
	r.s.mu.RUnlock()

	items = timewindow.Filter(items, func(p models.Prospect) (time.Time, bool) {
		return p.HistoryDate(), true
	}, filter.Window, filter.Custom, nowOr(filter.Now))
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].HistoryDate().After(items[j].HistoryDate())
	})
	return items, nil
}

// StudentRepository is the memory StudentStore.
type StudentRepository struct{ s *Store }

// Create stores a new student. The studentId must be unique.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("students.create"); err != nil {
		return err
	}
	for _, existing := range r.s.students {
		if existing.StudentID == student.StudentID {
			return repository.ErrDuplicate
		}
	}
	student.ID = newID(student.ID)
	r.s.students[student.ID] = student.Clone()
	return nil
}

// FindByID returns a copy of the student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st.Clone(), nil
}

// FindByIDs returns the students that exist among ids, in the given order.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		if st, ok := r.s.students[id]; ok {
			out = append(out, *st.Clone())
		}
	}
	return out, nil
}

// Update replaces an existing student. The studentId is preserved.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("students.update"); err != nil {
		return err
	}
	existing, ok := r.s.students[student.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c := student.Clone()
	c.StudentID = existing.StudentID
	r.s.students[student.ID] = c
	return nil
}

// Delete removes a student and drops it from every roster.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("students.delete"); err != nil {
		return err
	}
	if _, ok := r.s.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.students, id)
	for _, c := range r.s.classes {
		c.StudentIDs = without(c.StudentIDs, id)
	}
	return nil
}

// List returns students newest registration first.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if !containsFold(filter.Search, st.Name, st.StudentID, deref(st.Email), deref(st.Phone)) {
			continue
		}
		out = append(out, *st.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].StudentID > out[j].StudentID
		}
		return out[i].RegistrationDate.After(out[j].RegistrationDate)
	})
	return out, nil
}

// ClassRepository is the memory ClassStore.
type ClassRepository struct{ s *Store }

// Create stores a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("classes.create"); err != nil {
		return err
	}
	class.ID = newID(class.ID)
	if class.StudentIDs == nil {
		class.StudentIDs = []string{}
	}
	r.s.classes[class.ID] = class.Clone()
	return nil
}

// FindByID returns a copy of the class.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.classes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

// Update replaces class details and keeps the stored roster.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("classes.update"); err != nil {
		return err
	}
	existing, ok := r.s.classes[class.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c := class.Clone()
	c.StudentIDs = append([]string(nil), existing.StudentIDs...)
	r.s.classes[class.ID] = c
	return nil
}

// Delete removes the class together with its roster.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("classes.delete"); err != nil {
		return err
	}
	if _, ok := r.s.classes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.classes, id)
	return nil
}

// List returns classes ordered by name.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Class, 0, len(r.s.classes))
	for _, c := range r.s.classes {
		if filter.Language != "" && !strings.EqualFold(c.Language, filter.Language) {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if !containsFold(filter.Search, c.Name, c.Language) {
			continue
		}
		out = append(out, *c.Clone())
	}
	sortClasses(out)
	return out, nil
}

// ListByStudent scans every roster for the student.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Class, 0)
	for _, c := range r.s.classes {
		if c.HasStudent(studentID) {
			out = append(out, *c.Clone())
		}
	}
	sortClasses(out)
	return out, nil
}

// ApplyRosterDelta updates every affected roster under one lock. The student
// and all target classes are checked before anything changes.
func (r *ClassRepository) ApplyRosterDelta(ctx context.Context, studentID string, add, remove []string, actor models.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("classes.roster"); err != nil {
		return err
	}
	if err := r.checkRoster(studentID, append(append([]string(nil), add...), remove...)); err != nil {
		return err
	}
	r.applyLocked(studentID, add, remove, actor)
	return nil
}

// SetStudentClasses reads the student's classes and writes the difference to
// target within one critical section.
func (r *ClassRepository) SetStudentClasses(ctx context.Context, studentID string, target []string, actor models.Actor) (*models.EnrollmentChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRoster(studentID, target); err != nil {
		return nil, err
	}
	current := make([]string, 0)
	for id, c := range r.s.classes {
		if c.HasStudent(studentID) {
			current = append(current, id)
		}
	}
	add, remove := models.DiffEnrollments(current, target)
	change := &models.EnrollmentChange{StudentID: studentID, Added: add, Removed: remove, ClassIDs: target}
	if change.Empty() {
		return change, nil
	}
	if err := r.s.injected("classes.roster"); err != nil {
		return nil, err
	}
	r.applyLocked(studentID, add, remove, actor)
	return change, nil
}

// checkRoster must be called with the write lock held.
func (r *ClassRepository) checkRoster(studentID string, classIDs []string) error {
	if _, ok := r.s.students[studentID]; !ok {
		return fmt.Errorf("student %s: %w", studentID, repository.ErrNotFound)
	}
	for _, id := range classIDs {
		if _, ok := r.s.classes[id]; !ok {
			return fmt.Errorf("class %s: %w", id, repository.ErrNotFound)
		}
	}
	return nil
}

func (r *ClassRepository) applyLocked(studentID string, add, remove []string, actor models.Actor) {
	now := time.Now().UTC()
	for _, id := range add {
		c := r.s.classes[id]
		if !c.HasStudent(studentID) {
			c.StudentIDs = append(c.StudentIDs, studentID)
			c.StampUpdated(actor, now)
		}
	}
	for _, id := range remove {
		c := r.s.classes[id]
		if c.HasStudent(studentID) {
			c.StudentIDs = without(c.StudentIDs, studentID)
			c.StampUpdated(actor, now)
		}
	}
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func sortClasses(items []models.Class) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
}

// SequenceRepository is the memory SequenceStore.
type SequenceRepository struct{ s *Store }

// NextStudentSequence increments the year's counter under the store lock.
func (r *SequenceRepository) NextStudentSequence(ctx context.Context, year int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("sequences.next"); err != nil {
		return 0, err
	}
	r.s.sequences[year]++
	return r.s.sequences[year], nil
}
