package model

import "time"

// EventRequest is the payload for creating or replacing an event.
type EventRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Type              EventType  `json:"event_type"`
	Category          Category   `json:"category"`
	Start             time.Time  `json:"start"`
	End               *time.Time `json:"end,omitempty"`
	HouseID           *string    `json:"house_id,omitempty"`
	Location          string     `json:"location"`
	Actor             string     `json:"actor"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern,omitempty"`
	RecurrenceEnd     *time.Time `json:"recurrence_end,omitempty"`
	ParentID          *int64     `json:"parent_id,omitempty"`
}

// ToEvent builds an unsaved event from the request; Actor becomes the creator.
func (r EventRequest) ToEvent() *Event {
	houseID := r.HouseID
	if houseID != nil && *houseID == "" {
		houseID = nil
	}
	return &Event{
		Title:             r.Title,
		Description:       r.Description,
		Type:              r.Type,
		Category:          r.Category,
		Start:             r.Start,
		End:               r.End,
		HouseID:           houseID,
		Location:          r.Location,
		CreatedBy:         r.Actor,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
		RecurrenceEnd:     r.RecurrenceEnd,
		ParentID:          r.ParentID,
	}
}

// CancelRequest is the payload for soft-cancelling an event.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
}

// Validate checks that both reason and actor are present.
func (r CancelRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ValidationError{Problems: []string{"reason and actor are required"}}
	}
	return nil
}

// ConflictCheckRequest is a candidate event for a conflict check. ID names
// the stored event being edited so it is not reported against itself.
type ConflictCheckRequest struct {
	EventRequest
	ID int64 `json:"id,omitempty"`
}

// ActorRequest names who performs an action that needs no other input.
type ActorRequest struct {
	Actor string `json:"actor"`
}

// ConflictsResponse lists the events a candidate would overlap.
type ConflictsResponse struct {
	Conflicts []Event `json:"conflicts"`
}

// ScheduleResult reports a saved event together with anything it overlaps.
// Conflicts are informational; the save has already happened.
type ScheduleResult struct {
	ID        int64   `json:"id"`
	Found     bool    `json:"found"`
	Conflicts []Event `json:"conflicts"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}
