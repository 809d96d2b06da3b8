package models

import (
	"fmt"
	"sort"
	"time"
)

// Class is a scheduled course. StudentIDs is the only record of enrollment.
type Class struct {
	ID         string            `db:"id" json:"id"`
	Name       string            `db:"name" json:"name"`
	Language   string            `db:"language" json:"language"`
	Level      Level             `db:"level" json:"level"`
	TeacherID  string            `db:"teacher_id" json:"teacherId"`
	Schedule   []ScheduleSession `db:"-" json:"schedule"`
	StudentIDs []string          `db:"-" json:"studentIds"`
	Attribution
}

// HasStudent reports whether the student is on the roster.
func (c *Class) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c *Class) Clone() *Class {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Schedule = append([]ScheduleSession(nil), c.Schedule...)
	cp.StudentIDs = append([]string(nil), c.StudentIDs...)
	return &cp
}

// ScheduleSession is one weekly meeting. Times are HH:MM, 24-hour clock.
type ScheduleSession struct {
	Day       Weekday `json:"day"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// Validate checks the day and that the session starts before it ends.
func (s ScheduleSession) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("unknown day %q", s.Day)
	}
	start, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return fmt.Errorf("startTime must be HH:MM")
	}
	end, err := time.Parse("15:04", s.EndTime)
	if err != nil {
		return fmt.Errorf("endTime must be HH:MM")
	}
	if !start.Before(end) {
		return fmt.Errorf("startTime must be before endTime")
	}
	return nil
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Language  string
	Level     Level
	TeacherID string
	Search    string
	PageRequest
}

// EnrollmentChange reports the delta applied to a student's classes.
type EnrollmentChange struct {
	StudentID string   `json:"studentId"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	ClassIDs  []string `json:"classIds"`
}

// Empty reports whether the change touched no roster.
func (c EnrollmentChange) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// DiffEnrollments returns the classes to join and to leave, each sorted.
func DiffEnrollments(current, target []string) (add, remove []string) {
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[string]struct{}, len(target))
	for _, id := range target {
		want[id] = struct{}{}
	}
	add, remove = []string{}, []string{}
	for id := range want {
		if _, ok := have[id]; !ok {
			add = append(add, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}
