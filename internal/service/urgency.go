package service

import (
	"sort"
	"time"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// ClassifyUrgency places a task relative to today. Only calendar dates are
// compared, in today's location; completed tasks are never overdue.
func ClassifyUrgency(due time.Time, status models.TaskStatus, today time.Time) models.Urgency {
	if status == models.TaskCompleted {
		return models.UrgencyCompleted
	}
	day := timewindow.StartOfDay(today)
	dueDay := timewindow.StartOfDay(due.In(today.Location()))
	switch {
	case dueDay.Before(day):
		return models.UrgencyOverdue
	case dueDay.Equal(day):
		return models.UrgencyDueToday
	default:
		return models.UrgencyUpcoming
	}
}

// BuildProspectIndicators returns badge data keyed by prospect id. Count is the
// number of pending follow-ups; prospects with none are omitted.
func BuildProspectIndicators(followUps []models.FollowUpAction, today time.Time) map[string]models.ProspectIndicator {
	indicators := make(map[string]models.ProspectIndicator)
	for _, f := range followUps {
		if f.Status != models.TaskPending {
			continue
		}
		ind := indicators[f.ProspectID]
		ind.Count++
		switch ClassifyUrgency(f.DueDate, f.Status, today) {
		case models.UrgencyOverdue:
			ind.HasOverdue = true
		case models.UrgencyDueToday:
			ind.HasDueToday = true
		}
		indicators[f.ProspectID] = ind
	}
	return indicators
}

// MergeTaskFeed combines both task kinds into one feed ordered by due date,
// earliest first. Completed tasks are dropped unless the filter asks for them.
func MergeTaskFeed(followUps []models.FollowUpAction, comms []models.Communication, today time.Time, filter models.TaskFeedFilter) []models.TaskItem {
	feed := make([]models.TaskItem, 0, len(followUps)+len(comms))
	for _, f := range followUps {
		feed = append(feed, models.TaskItem{
			Kind:       models.TaskKindFollowUp,
			ID:         f.ID,
			ProspectID: f.ProspectID,
			Title:      f.Notes,
			DueDate:    f.DueDate,
			Assignee:   f.Assignee,
			Status:     f.Status,
			Urgency:    ClassifyUrgency(f.DueDate, f.Status, today),
		})
	}
	for _, c := range comms {
		feed = append(feed, models.TaskItem{
			Kind:     models.TaskKindCommunication,
			ID:       c.ID,
			Title:    c.Title,
			DueDate:  c.DueDate,
			Assignee: c.Assignee,
			Priority: c.Priority,
			Status:   c.Status,
			Urgency:  ClassifyUrgency(c.DueDate, c.Status, today),
		})
	}

	allowed := make(map[models.Urgency]bool, len(filter.OnlyUrgencies))
	for _, u := range filter.OnlyUrgencies {
		allowed[u] = true
	}
	kept := feed[:0]
	for _, item := range feed {
		if !filter.IncludeDone && item.Status == models.TaskCompleted {
			continue
		}
		if filter.Assignee != "" && item.Assignee != filter.Assignee {
			continue
		}
		if len(allowed) > 0 && !allowed[item.Urgency] {
			continue
		}
		kept = append(kept, item)
	}
	feed = kept

	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].DueDate.Equal(feed[j].DueDate) {
			return feed[i].DueDate.Before(feed[j].DueDate)
		}
		return feed[i].ID < feed[j].ID
	})
	if filter.Limit > 0 && len(feed) > filter.Limit {
		feed = feed[:filter.Limit]
	}
	return feed
}
