package model

import (
	"fmt"
	"strings"
	"time"
)

// RawTask is a task record as submitted by a caller. Every key is optional
// and values are loosely typed; a key present with a nil value is distinct
// from an absent key.
type RawTask map[string]any

// Lookup returns the value stored under key and whether the key is present.
func (r RawTask) Lookup(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Missing reports whether key is absent or explicitly nil.
func (r RawTask) Missing(key string) bool {
	v, ok := r[key]
	return !ok || v == nil
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Task is a normalized task plus the scoring fields attached to it.
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	DueDate            Date     `json:"due_date"`
	PastDue            bool     `json:"past_due"`
	EstimatedHours     float64  `json:"estimated_hours"`
	Importance         float64  `json:"importance"`
	Dependencies       []string `json:"dependencies"`
	Confidence         float64  `json:"confidence"`
	Incomplete         bool     `json:"incomplete"`
	ValidationWarnings []string `json:"validation_warnings"`
	DependencyIssue    bool     `json:"dependency_issue"`
	// Scoring
	Score       float64  `json:"score"`
	Priority    Priority `json:"priority,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

const dateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without a time of day. It is stored as midnight UTC.
// The zero Date means "no date"; 0001-01-01 built by NewDate or ParseDate is
// a set date.
type Date struct {
	time.Time
	set bool
}

// NewDate returns the calendar date of t as seen in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), set: true}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t, set: true}, nil
}

// IsZero reports whether d holds no date.
func (d Date) IsZero() bool {
	return !d.set
}

// DaysUntil returns the number of whole days from d to other. It is negative
// when other is earlier than d. Both are midnight UTC, so the count is exact
// for any span of years.
func (d Date) DaysUntil(other Date) int {
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON implements the json.Marshaler interface for Date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface for Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("failed to parse date '%s': %w", s, err)
	}
	*d = parsed
	return nil
}
