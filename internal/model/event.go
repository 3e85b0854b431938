// Package model defines the core domain types for the house calendar.
package model

import (
	"fmt"
	"time"
)

// DefaultDuration is assumed for events stored without an end time.
const DefaultDuration = time.Hour

// Event is a single scheduled item, scoped to one house or to the whole
// community when HouseID is nil.
//
// Times are naive local timestamps; no timezone conversion is ever applied.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description"`
	Type        EventType `json:"event_type"`
	Category    Category  `json:"category"`

	Start time.Time  `json:"start" validate:"required"`
	End   *time.Time `json:"end,omitempty"`

	HouseID  *string `json:"house_id,omitempty"`
	Location string  `json:"location" validate:"max=100"`

	CreatedBy  string     `json:"created_by" validate:"required"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedBy *string    `json:"modified_by,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`

	// Recurrence fields are stored and returned but never expanded.
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern,omitempty"`
	RecurrenceEnd     *time.Time `json:"recurrence_end,omitempty"`
	ParentID          *int64     `json:"parent_id,omitempty"`

	IsCancelled  bool    `json:"is_cancelled"`
	CancelReason *string `json:"cancel_reason,omitempty"`

	// ImportID identifies the event in an external calendar it was imported from.
	ImportID *string `json:"import_id,omitempty"`

	// Display joins, filled by the repository.
	HouseName     string `json:"house_name,omitempty"`
	CreatedByName string `json:"created_by_name,omitempty"`
}

// IsCommunity reports whether the event applies to every house.
func (e *Event) IsCommunity() bool {
	return e.HouseID == nil
}

// EffectiveEnd returns End, or Start plus DefaultDuration when End is unset.
func (e *Event) EffectiveEnd() time.Time {
	if e.End != nil {
		return *e.End
	}
	return e.Start.Add(DefaultDuration)
}

// Duration is EffectiveEnd minus Start.
func (e *Event) Duration() time.Duration {
	return e.EffectiveEnd().Sub(e.Start)
}

func (e *Event) DisplayTime() string {
	if e.End != nil {
		return e.Start.Format("15:04") + " - " + e.End.Format("15:04")
	}
	return e.Start.Format("15:04")
}

func (e *Event) DisplayDate() string {
	return e.Start.Format("Jan 02, 2006")
}

func (e *Event) DisplayDateTime() string {
	return e.Start.Format("Jan 02, 2006 15:04")
}

// IsAllDay reports whether the event starts at midnight and, if it has an
// end, ends at midnight too.
func (e *Event) IsAllDay() bool {
	if !IsMidnight(e.Start) {
		return false
	}
	return e.End == nil || IsMidnight(*e.End)
}

// IsMultiDay reports whether the end falls on a later calendar date than the start.
func (e *Event) IsMultiDay() bool {
	if e.End == nil {
		return false
	}
	return dateOf(*e.End).After(dateOf(e.Start))
}

func (e *Event) IsToday(now time.Time) bool {
	return sameDate(e.Start, now)
}

func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Start.After(now)
}

func (e *Event) IsPast(now time.Time) bool {
	return e.EffectiveEnd().Before(now)
}

// IsCurrentlyActive reports whether now lies within [Start, EffectiveEnd].
func (e *Event) IsCurrentlyActive(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.EffectiveEnd())
}

// Clone returns an unsaved copy of e. The copy is never recurring; it links
// to e when e is a recurring template and otherwise keeps e's parent link.
func (e *Event) Clone() *Event {
	c := &Event{
		Title:       e.Title,
		Description: e.Description,
		Type:        e.Type,
		Category:    e.Category,
		Start:       e.Start,
		End:         copyTime(e.End),
		HouseID:     copyString(e.HouseID),
		Location:    e.Location,
		CreatedBy:   e.CreatedBy,
		HouseName:   e.HouseName,
	}
	if e.IsRecurring {
		id := e.ID
		c.ParentID = &id
	} else if e.ParentID != nil {
		id := *e.ParentID
		c.ParentID = &id
	}
	return c
}

// Copy returns a deep copy of e, including its id.
func (e *Event) Copy() *Event {
	c := *e
	c.End = copyTime(e.End)
	c.HouseID = copyString(e.HouseID)
	c.ModifiedBy = copyString(e.ModifiedBy)
	c.ModifiedAt = copyTime(e.ModifiedAt)
	c.RecurrencePattern = copyString(e.RecurrencePattern)
	c.RecurrenceEnd = copyTime(e.RecurrenceEnd)
	c.CancelReason = copyString(e.CancelReason)
	c.ImportID = copyString(e.ImportID)
	if e.ParentID != nil {
		id := *e.ParentID
		c.ParentID = &id
	}
	return &c
}

func (e *Event) String() string {
	scope := "[Community] "
	if e.HouseID != nil && *e.HouseID != "" {
		scope = "[" + *e.HouseID + "] "
	}
	return fmt.Sprintf("%s%s - %s", scope, e.Title, e.DisplayDateTime())
}

// StringPtr and TimePtr are conveniences for the optional fields.
func StringPtr(s string) *string { return &s }

func TimePtr(t time.Time) *time.Time { return &t }

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// IsMidnight reports whether t falls exactly on the start of its day.
func IsMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
