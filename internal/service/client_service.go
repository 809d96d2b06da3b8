package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

type convertedProspectSearcher interface {
	Search(ctx context.Context, filter models.ProspectFilter) ([]models.Prospect, error)
}

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

// ClientFilter narrows the clients view.
type ClientFilter struct {
	Kind   models.ClientKind
	Search string
	Window timewindow.Window
	Custom *timewindow.Range
	Now    time.Time
}

// ClientService derives the read-only clients view from students and
// converted translation or interpretation jobs.
type ClientService struct {
	prospects convertedProspectSearcher
	students  studentLister
}

// NewClientService constructs the client view service.
func NewClientService(prospects convertedProspectSearcher, students studentLister) *ClientService {
	return &ClientService{prospects: prospects, students: students}
}

// List returns clients matching the filter, newest first.
func (s *ClientService) List(ctx context.Context, filter ClientFilter) ([]models.Client, error) {
	clients, err := s.all(ctx, filter.Kind)
	if err != nil {
		return nil, err
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		matched := clients[:0]
		for _, c := range clients {
			if containsFold(c.Name, term) || containsFold(c.ClientID, term) || containsFold(derefString(c.Email), term) {
				matched = append(matched, c)
			}
		}
		clients = matched
	}
	now := filter.Now
	if now.IsZero() {
		now = systemClock()
	}
	clients = timewindow.Filter(clients, clientSince, filter.Window, filter.Custom, now)
	sort.SliceStable(clients, func(i, j int) bool {
		if clients[i].Since.Equal(clients[j].Since) {
			return clients[i].ClientID < clients[j].ClientID
		}
		return clients[i].Since.After(clients[j].Since)
	})
	return clients, nil
}

// Find resolves a visible client id (STU-… or C-…) to its client.
func (s *ClientService) Find(ctx context.Context, clientID string) (*models.Client, error) {
	clientID = strings.TrimSpace(clientID)
	kind := models.ClientJob
	if strings.HasPrefix(clientID, "STU-") {
		kind = models.ClientStudent
	}
	clients, err := s.all(ctx, kind)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ClientID == clientID {
			return &clients[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
}

func (s *ClientService) all(ctx context.Context, kind models.ClientKind) ([]models.Client, error) {
	var clients []models.Client
	if kind == "" || kind == models.ClientStudent {
		students, err := s.students.List(ctx, models.StudentFilter{})
		if err != nil {
			return nil, internalError(err, "list students")
		}
		for _, st := range students {
			fees := st.TotalFees
			clients = append(clients, models.Client{
				ClientID:    st.StudentID,
				Kind:        models.ClientStudent,
				RefID:       st.ID,
				Name:        st.Name,
				Email:       st.Email,
				Phone:       st.Phone,
				ServiceType: models.ServiceLanguageTraining,
				Since:       st.RegistrationDate,
				TotalFee:    &fees,
			})
		}
	}
	if kind == "" || kind == models.ClientJob {
		jobs, err := s.prospects.Search(ctx, models.ProspectFilter{Status: models.ProspectConverted})
		if err != nil {
			return nil, internalError(err, "search converted prospects")
		}
		for _, p := range jobs {
			fee, ok := models.CompletionFee(p.Service)
			if !ok {
				continue
			}
			clients = append(clients, models.Client{
				ClientID:    models.JobClientID(p.ID),
				Kind:        models.ClientJob,
				RefID:       p.ID,
				Name:        p.Name,
				Email:       p.Email,
				Phone:       p.Phone,
				ServiceType: p.ServiceType(),
				Since:       p.HistoryDate(),
				TotalFee:    &fee,
			})
		}
	}
	return clients, nil
}

func clientSince(c models.Client) (time.Time, bool) {
	return c.Since, !c.Since.IsZero()
}
