// Package timewindow filters dated records by rolling or custom reporting
// windows and computes period-over-period deltas for dashboard metrics.
//
// Every function here is pure: the reference instant is always passed in.
package timewindow

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Window identifies a reporting window.
type Window string

const (
	All     Window = "all"
	Last24h Window = "24h"
	Last7d  Window = "7d"
	Last1m  Window = "1m"
	Last3m  Window = "3m"
	Last6m  Window = "6m"
	Last1y  Window = "1y"
	Custom  Window = "custom"
)

// Windows lists every supported window in display order.
var Windows = []Window{All, Last24h, Last7d, Last1m, Last3m, Last6m, Last1y, Custom}

// Valid reports whether w is a known window.
func (w Window) Valid() bool {
	for _, known := range Windows {
		if w == known {
			return true
		}
	}
	return false
}

// ParseWindow parses a query value; the empty string means All.
func ParseWindow(raw string) (Window, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return All, nil
	}
	w := Window(raw)
	if !w.Valid() {
		return "", fmt.Errorf("unknown time window %q", raw)
	}
	return w, nil
}

// Range is a custom date range. Both ends are inclusive calendar days.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects ranges whose end day precedes the start day.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("custom range requires start and end")
	}
	if StartOfDay(r.End).Before(StartOfDay(r.Start)) {
		return fmt.Errorf("custom range end precedes start")
	}
	return nil
}

// Interval is a closed time interval. A zero From means no lower bound and a
// zero To means no upper bound.
type Interval struct {
	From  time.Time
	To    time.Time
	Empty bool
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	if i.Empty {
		return false
	}
	if !i.From.IsZero() && t.Before(i.From) {
		return false
	}
	if !i.To.IsZero() && t.After(i.To) {
		return false
	}
	return true
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// back moves t n spans of w into the past. Month and year spans are calendar spans.
func back(w Window, t time.Time, n int) time.Time {
	switch w {
	case Last24h:
		return t.Add(-time.Duration(n) * 24 * time.Hour)
	case Last7d:
		return t.AddDate(0, 0, -7*n)
	case Last1m:
		return t.AddDate(0, -n, 0)
	case Last3m:
		return t.AddDate(0, -3*n, 0)
	case Last6m:
		return t.AddDate(0, -6*n, 0)
	case Last1y:
		return t.AddDate(-n, 0, 0)
	default:
		return t
	}
}

// Current returns the interval covered by the window at instant now. Relative
// windows are "since now minus span" with no upper bound. A custom window
// without a range behaves like All.
func Current(w Window, custom *Range, now time.Time) Interval {
	switch w {
	case Last24h, Last7d, Last1m, Last3m, Last6m, Last1y:
		return Interval{From: back(w, now, 1)}
	case Custom:
		if custom == nil {
			return Interval{}
		}
		if custom.Validate() != nil {
			return Interval{Empty: true}
		}
		return Interval{From: StartOfDay(custom.Start), To: EndOfDay(custom.End)}
	default:
		return Interval{}
	}
}

// Previous returns the period of equal length immediately preceding Current.
// For All (and a custom window without a range) it is empty by definition.
func Previous(w Window, custom *Range, now time.Time) Interval {
	switch w {
	case Last24h, Last7d, Last1m, Last3m, Last6m, Last1y:
		return Interval{From: back(w, now, 2), To: back(w, now, 1).Add(-time.Nanosecond)}
	case Custom:
		if custom == nil || custom.Validate() != nil {
			return Interval{Empty: true}
		}
		start := StartOfDay(custom.Start)
		days := daysBetween(start, StartOfDay(custom.End)) + 1
		return Interval{From: start.AddDate(0, 0, -days), To: start.Add(-time.Millisecond)}
	default:
		return Interval{Empty: true}
	}
}

func daysBetween(from, to time.Time) int {
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// DateFunc extracts the date an item is filtered on. ok=false means the date is
// missing or unparsable and the item is excluded.
type DateFunc[T any] func(item T) (t time.Time, ok bool)

// Filter keeps the items dated inside the current window.
func Filter[T any](items []T, dateOf DateFunc[T], w Window, custom *Range, now time.Time) []T {
	return within(items, dateOf, Current(w, custom, now))
}

// PreviousPeriod keeps the items dated inside the period preceding the window.
func PreviousPeriod[T any](items []T, dateOf DateFunc[T], w Window, custom *Range, now time.Time) []T {
	return within(items, dateOf, Previous(w, custom, now))
}

func within[T any](items []T, dateOf DateFunc[T], interval Interval) []T {
	out := make([]T, 0, len(items))
	if interval.Empty {
		return out
	}
	for _, item := range items {
		t, ok := dateOf(item)
		if !ok || t.IsZero() {
			continue
		}
		if interval.Contains(t) {
			out = append(out, item)
		}
	}
	return out
}

// PercentageChange returns the rounded period-over-period change. A zero
// previous value yields 100 when there is new activity and 0 otherwise.
func PercentageChange(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// Delta pairs a metric for the current and previous period.
type Delta struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	ChangePct int     `json:"changePct"`
}

// NewDelta builds a Delta from two values.
func NewDelta(current, previous float64) Delta {
	return Delta{Current: current, Previous: previous, ChangePct: PercentageChange(current, previous)}
}

// CountDelta counts items in the current and previous periods.
func CountDelta[T any](items []T, dateOf DateFunc[T], w Window, custom *Range, now time.Time) Delta {
	cur := len(Filter(items, dateOf, w, custom, now))
	prev := len(PreviousPeriod(items, dateOf, w, custom, now))
	return NewDelta(float64(cur), float64(prev))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats accepted from clients and storage.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
