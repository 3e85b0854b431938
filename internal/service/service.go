// Package service implements the calendar's use cases on top of an event
// store: scheduling with conflict reporting, queries, the month view and
// iCalendar exchange.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/house-calendar/internal/calendar"
	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
	"github.com/Shivanand-hulikatti/house-calendar/internal/recurrence"
	"github.com/Shivanand-hulikatti/house-calendar/internal/repository"
)

// EventStore is the storage contract the service needs. Both
// repository.EventRepository and repository.MemoryEventRepository satisfy it.
type EventStore interface {
	GetAll(ctx context.Context) ([]model.Event, error)
	GetByRange(ctx context.Context, start, end time.Time) ([]model.Event, error)
	GetByHouse(ctx context.Context, houseID string, start, end *time.Time) ([]model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	GetByImportID(ctx context.Context, importID string) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) (int64, error)
	Update(ctx context.Context, e *model.Event) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Cancel(ctx context.Context, id int64, reason, actor string) (bool, error)
	GetConflicts(ctx context.Context, candidate *model.Event) ([]model.Event, error)
}

// CalendarService orchestrates event operations.
type CalendarService struct {
	events    EventStore
	logger    *slog.Logger
	clock     func() time.Time
	loc       *time.Location
	maxPerDay int
}

// Option configures a CalendarService.
type Option func(*CalendarService)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *CalendarService) { s.logger = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *CalendarService) { s.clock = now }
}

// WithLocation sets the zone whose wall clock decides "today".
func WithLocation(loc *time.Location) Option {
	return func(s *CalendarService) { s.loc = loc }
}

// WithMaxPerDay sets the per-day cap reported on month views.
func WithMaxPerDay(n int) Option {
	return func(s *CalendarService) { s.maxPerDay = n }
}

// NewCalendarService constructs a CalendarService over events.
func NewCalendarService(events EventStore, opts ...Option) *CalendarService {
	s := &CalendarService{
		events:    events,
		logger:    slog.Default(),
		clock:     time.Now,
		loc:       time.Local,
		maxPerDay: calendar.DefaultMaxPerDay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current wall-clock time of the configured zone as a
// naive timestamp, the same form event times are stored in.
func (s *CalendarService) Now() time.Time {
	t := s.clock().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Houses returns the reference houses.
func (s *CalendarService) Houses() []model.House {
	return model.Houses()
}

// Get returns a single event, including cancelled ones.
func (s *CalendarService) Get(ctx context.Context, id int64) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Schedule saves a new event and reports the live events it overlaps.
// Overlaps never block the save.
func (s *CalendarService) Schedule(ctx context.Context, e *model.Event) (*model.ScheduleResult, error) {
	if err := normalizeRecurrence(e); err != nil {
		return nil, err
	}
	id, err := s.events.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("schedule event: %w", err)
	}
	conflicts, err := s.conflicts(ctx, e)
	if err != nil {
		return nil, err
	}
	return &model.ScheduleResult{ID: id, Found: true, Conflicts: conflicts}, nil
}

// Reschedule replaces the mutable fields of an existing event on behalf of
// actor. Found is false when no event has e.ID. The creator, parent link and
// import id of the stored event are kept.
func (s *CalendarService) Reschedule(ctx context.Context, e *model.Event, actor string) (*model.ScheduleResult, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, &model.ValidationError{Problems: []string{"actor is required"}}
	}
	stored, err := s.events.GetByID(ctx, e.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.ScheduleResult{ID: e.ID, Conflicts: []model.Event{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reschedule event: %w", err)
	}

	e.CreatedBy = stored.CreatedBy
	e.CreatedAt = stored.CreatedAt
	e.ParentID = stored.ParentID
	e.ImportID = stored.ImportID
	e.IsCancelled = stored.IsCancelled
	e.CancelReason = stored.CancelReason
	e.ModifiedBy = &actor
	if err := normalizeRecurrence(e); err != nil {
		return nil, err
	}

	found, err := s.events.Update(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("reschedule event: %w", err)
	}
	if !found {
		return &model.ScheduleResult{ID: e.ID, Conflicts: []model.Event{}}, nil
	}
	conflicts, err := s.conflicts(ctx, e)
	if err != nil {
		return nil, err
	}
	return &model.ScheduleResult{ID: e.ID, Found: true, Conflicts: conflicts}, nil
}

// Clone schedules a copy of event id on behalf of actor.
func (s *CalendarService) Clone(ctx context.Context, id int64, actor string) (*model.ScheduleResult, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, &model.ValidationError{Problems: []string{"actor is required"}}
	}
	orig, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := orig.Clone()
	c.CreatedBy = actor
	return s.Schedule(ctx, c)
}

// Cancel soft-cancels an event. It reports whether the event existed.
func (s *CalendarService) Cancel(ctx context.Context, id int64, reason, actor string) (bool, error) {
	ok, err := s.events.Cancel(ctx, id, reason, actor)
	if err != nil {
		return false, fmt.Errorf("cancel event: %w", err)
	}
	if ok {
		s.logger.Info("event cancelled", "event_id", id, "actor", actor)
	}
	return ok, nil
}

// Delete removes an event permanently. It reports whether the event existed.
func (s *CalendarService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.events.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	return ok, nil
}

// CheckConflicts reports the live events a candidate would overlap without
// saving it.
func (s *CalendarService) CheckConflicts(ctx context.Context, candidate *model.Event) ([]model.Event, error) {
	if candidate.Start.IsZero() {
		return nil, &model.ValidationError{Problems: []string{"start is required"}}
	}
	if candidate.End != nil && candidate.End.Before(candidate.Start) {
		return nil, &model.ValidationError{Problems: []string{"end must not be before start"}}
	}
	if candidate.HouseID != nil {
		if _, ok := model.LookupHouse(*candidate.HouseID); !ok {
			return nil, &model.ValidationError{Problems: []string{"unknown house " + *candidate.HouseID}}
		}
	}
	return s.conflicts(ctx, candidate)
}

// Query selects events for listing. Nil bounds are open; an empty HouseID
// means every house.
type Query struct {
	From    *time.Time
	To      *time.Time
	HouseID string
}

// Events returns live events matching q in start order.
func (s *CalendarService) Events(ctx context.Context, q Query) ([]model.Event, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, &model.ValidationError{Problems: []string{"range end must not be before range start"}}
	}

	var (
		events []model.Event
		err    error
	)
	switch {
	case q.HouseID != "":
		if _, ok := model.LookupHouse(q.HouseID); !ok {
			return nil, &model.ValidationError{Problems: []string{"unknown house " + q.HouseID}}
		}
		events, err = s.events.GetByHouse(ctx, q.HouseID, q.From, q.To)
	case q.From != nil && q.To != nil:
		events, err = s.events.GetByRange(ctx, *q.From, *q.To)
	default:
		events, err = s.events.GetAll(ctx)
		events = narrow(events, q.From, q.To)
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// Day returns the live events starting on date's calendar day.
func (s *CalendarService) Day(ctx context.Context, date time.Time, houseID string) ([]model.Event, error) {
	start, end := calendar.DayRange(date)
	return s.Events(ctx, Query{From: &start, To: &end, HouseID: houseID})
}

// MonthView builds the month grid, optionally filtered to one house plus
// community events.
func (s *CalendarService) MonthView(ctx context.Context, year int, month time.Month, houseID string) (calendar.Month, error) {
	events, err := s.monthEvents(ctx, year, month, houseID)
	if err != nil {
		return calendar.Month{}, err
	}
	return calendar.BuildMonth(year, month, events,
		calendar.WithToday(s.Now()),
		calendar.WithMaxPerDay(s.maxPerDay),
		calendar.WithLocation(time.UTC),
	), nil
}

// ExportMonth writes the month's live events as an iCalendar feed.
func (s *CalendarService) ExportMonth(ctx context.Context, w io.Writer, year int, month time.Month, houseID string) error {
	events, err := s.monthEvents(ctx, year, month, houseID)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("House Calendar - %s %d", month, year)
	if houseID != "" {
		name += " - " + model.HouseName(houseID)
	}
	if err := calendar.WriteICS(w, name, events, s.Now()); err != nil {
		return fmt.Errorf("export month: %w", err)
	}
	return nil
}

// ImportResult summarises an iCalendar import.
type ImportResult struct {
	Batch      string  `json:"batch"`
	Created    []int64 `json:"created"`
	Duplicates int     `json:"duplicates"`
	Skipped    int     `json:"skipped"`
}

// Import creates an event for every usable VEVENT in r on behalf of actor.
// Entries whose UID was imported before are counted as duplicates; entries
// that are incomplete or fail validation are skipped.
func (s *CalendarService) Import(ctx context.Context, r io.Reader, actor string) (*ImportResult, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, &model.ValidationError{Problems: []string{"actor is required"}}
	}
	parsed, skipped, err := calendar.ParseICS(r, s.loc)
	if err != nil {
		return nil, &model.ValidationError{Problems: []string{err.Error()}}
	}
	if len(parsed) == 0 && skipped == 0 {
		return nil, &model.ValidationError{Problems: []string{"calendar holds no events"}}
	}

	res := &ImportResult{Batch: uuid.NewString(), Created: []int64{}, Skipped: skipped}
	logger := s.logger.With("batch", res.Batch)
	for i := range parsed {
		e := &parsed[i]
		if e.ImportID != nil {
			_, err := s.events.GetByImportID(ctx, *e.ImportID)
			if err == nil {
				res.Duplicates++
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("import events: %w", err)
			}
		}
		e.CreatedBy = actor
		id, err := s.events.Create(ctx, e)
		if errors.Is(err, model.ErrValidation) {
			logger.Warn("import entry rejected", "title", e.Title, "err", err)
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import events: %w", err)
		}
		res.Created = append(res.Created, id)
	}
	logger.Info("import finished",
		"created", len(res.Created), "duplicates", res.Duplicates, "skipped", res.Skipped)
	return res, nil
}

func (s *CalendarService) monthEvents(ctx context.Context, year int, month time.Month, houseID string) ([]model.Event, error) {
	if month < time.January || month > time.December {
		return nil, &model.ValidationError{Problems: []string{fmt.Sprintf("invalid month %d", month)}}
	}
	start, end := calendar.MonthRange(year, month, time.UTC)
	return s.Events(ctx, Query{From: &start, To: &end, HouseID: houseID})
}

func (s *CalendarService) conflicts(ctx context.Context, e *model.Event) ([]model.Event, error) {
	conflicts, err := s.events.GetConflicts(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("check conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		s.logger.Debug("event overlaps existing events",
			"event_id", e.ID, "title", e.Title, "conflicts", len(conflicts))
	}
	if conflicts == nil {
		conflicts = []model.Event{}
	}
	return conflicts, nil
}

// normalizeRecurrence rewrites a recurring event's pattern as canonical
// RRULE text.
func normalizeRecurrence(e *model.Event) error {
	if !e.IsRecurring || e.RecurrencePattern == nil {
		return nil
	}
	rule, err := recurrence.Normalize(*e.RecurrencePattern)
	if err != nil {
		return &model.ValidationError{Problems: []string{"recurrence pattern: " + err.Error()}}
	}
	e.RecurrencePattern = &rule
	return nil
}

func narrow(events []model.Event, from, to *time.Time) []model.Event {
	if from == nil && to == nil {
		return events
	}
	out := events[:0]
	for _, e := range events {
		if from != nil && e.Start.Before(*from) {
			continue
		}
		if to != nil && !e.Start.Before(*to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
