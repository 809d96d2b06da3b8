package models

import "time"

// FollowUpAction is a scheduled task tied to one prospect.
type FollowUpAction struct {
	ID          string     `db:"id" json:"id"`
	ProspectID  string     `db:"prospect_id" json:"prospectId"`
	DueDate     time.Time  `db:"due_date" json:"dueDate"`
	Assignee    string     `db:"assignee" json:"assignee"`
	Notes       string     `db:"notes" json:"notes"`
	Status      TaskStatus `db:"status" json:"status"`
	Outcome     *string    `db:"outcome" json:"outcome,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	Attribution
}

// Clone returns a deep copy.
func (f *FollowUpAction) Clone() *FollowUpAction {
	if f == nil {
		return nil
	}
	c := *f
	c.Outcome = cloneString(f.Outcome)
	c.CompletedAt = cloneTime(f.CompletedAt)
	return &c
}

// Communication is a general team task not tied to a prospect.
type Communication struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     time.Time  `db:"due_date" json:"dueDate"`
	Assignee    string     `db:"assignee" json:"assignee"`
	Notes       string     `db:"notes" json:"notes"`
	Priority    Priority   `db:"priority" json:"priority"`
	Status      TaskStatus `db:"status" json:"status"`
	Outcome     *string    `db:"outcome" json:"outcome,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	Attribution
}

// Clone returns a deep copy.
func (c *Communication) Clone() *Communication {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Outcome = cloneString(c.Outcome)
	cp.CompletedAt = cloneTime(c.CompletedAt)
	return &cp
}

// FollowUpFilter narrows follow-up listings.
type FollowUpFilter struct {
	ProspectID string
	Status     TaskStatus
	Assignee   string
}

// CommunicationFilter narrows communication listings.
type CommunicationFilter struct {
	Status   TaskStatus
	Priority Priority
	Assignee string
	Search   string
}

// TaskItem is one entry of the merged task feed.
type TaskItem struct {
	Kind       TaskKind   `json:"kind"`
	ID         string     `json:"id"`
	ProspectID string     `json:"prospectId,omitempty"`
	Title      string     `json:"title"`
	DueDate    time.Time  `json:"dueDate"`
	Assignee   string     `json:"assignee"`
	Priority   Priority   `json:"priority,omitempty"`
	Status     TaskStatus `json:"status"`
	Urgency    Urgency    `json:"urgency"`
}

// ProspectIndicator is the badge data of a prospect's follow-ups.
type ProspectIndicator struct {
	Count       int  `json:"count"`
	HasOverdue  bool `json:"hasOverdue"`
	HasDueToday bool `json:"hasDueToday"`
}

// TaskFeedFilter narrows the merged task feed.
type TaskFeedFilter struct {
	Assignee      string
	IncludeDone   bool
	Limit         int
	OnlyUrgencies []Urgency
}
