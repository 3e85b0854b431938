package calendar

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

const (
	productID = "-//house-calendar//month export//EN"
	// floatingLayout writes local clock time with no zone, which is how the
	// calendar stores every timestamp.
	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"

	propHouse    ical.ComponentProperty = "X-HOUSE-ID"
	propType     ical.ComponentProperty = "X-EVENT-TYPE"
	propCategory                        = ical.ComponentPropertyCategories
)

// eventNamespace seeds the stable UIDs of exported events.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("house-calendar/events"))

// EventUID returns the iCalendar UID for e: its import id if it came from
// another calendar, else a name-based UUID derived from its id.
func EventUID(e *model.Event) string {
	if e.ImportID != nil && *e.ImportID != "" {
		return *e.ImportID
	}
	return uuid.NewSHA1(eventNamespace, []byte(strconv.FormatInt(e.ID, 10))).String()
}

// WriteICS serialises events as a VCALENDAR named name.
func WriteICS(w io.Writer, name string, events []model.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for i := range events {
		e := &events[i]
		ve := cal.AddEvent(EventUID(e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.IsAllDay() {
			ve.SetProperty(ical.ComponentPropertyDtStart, e.Start.Format(dateLayout), ical.WithValue(string(ical.ValueDataTypeDate)))
			end := e.EffectiveEnd()
			if !end.After(e.Start) || !model.IsMidnight(end) {
				end = StartOfDay(e.Start).AddDate(0, 0, 1)
			}
			ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(dateLayout), ical.WithValue(string(ical.ValueDataTypeDate)))
		} else {
			ve.SetProperty(ical.ComponentPropertyDtStart, e.Start.Format(floatingLayout))
			ve.SetProperty(ical.ComponentPropertyDtEnd, e.EffectiveEnd().Format(floatingLayout))
		}
		ve.SetProperty(propCategory, e.Category.String())
		ve.SetProperty(propType, e.Type.String())
		if e.HouseID != nil {
			ve.SetProperty(propHouse, *e.HouseID)
		}
		if e.IsCancelled {
			ve.SetStatus(ical.ObjectStatusCancelled)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// ErrEmptyCalendar is returned when an import body holds no calendar data.
var ErrEmptyCalendar = errors.New("empty calendar")

// ParseICS reads VEVENTs into unsaved events. UIDs become import ids; times
// come back as naive clock time in loc. Cancelled entries and entries without
// a UID, summary or start are skipped and counted.
func ParseICS(r io.Reader, loc *time.Location) ([]model.Event, int, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, ErrEmptyCalendar
		}
		return nil, 0, fmt.Errorf("parse calendar: %w", err)
	}

	var (
		out     []model.Event
		skipped int
	)
	for _, ve := range cal.Events() {
		e, ok := eventFromVEvent(ve, loc)
		if !ok {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped, nil
}

func eventFromVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, bool) {
	var e model.Event

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	e.Title = propValue(ve, ical.ComponentPropertySummary)
	if uid == "" || e.Title == "" {
		return e, false
	}
	if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), string(ical.ObjectStatusCancelled)) {
		return e, false
	}
	e.ImportID = &uid

	start, err := parseICSTime(propValue(ve, ical.ComponentPropertyDtStart), loc)
	if err != nil {
		return e, false
	}
	e.Start = start
	if v := propValue(ve, ical.ComponentPropertyDtEnd); v != "" {
		if end, err := parseICSTime(v, loc); err == nil && !end.Before(start) {
			e.End = &end
		}
	}

	e.Description = propValue(ve, ical.ComponentPropertyDescription)
	e.Location = propValue(ve, ical.ComponentPropertyLocation)
	e.Type = model.CampusActivity
	if t, err := model.ParseEventType(propValue(ve, propType)); err == nil {
		e.Type = t
	}
	e.Category = model.Optional
	if c, err := model.ParseCategory(propValue(ve, propCategory)); err == nil {
		e.Category = c
	}
	if h := propValue(ve, propHouse); h != "" {
		if _, ok := model.LookupHouse(h); ok {
			e.HouseID = &h
		}
	}
	return e, true
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// parseICSTime accepts UTC, floating and date-only values and returns the
// wall clock in loc. UTC values are shifted into loc; floating and date-only
// values already are clock time.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(floatingLayout+"Z", v)
		if err != nil {
			return time.Time{}, err
		}
		return wallClock(t.In(loc)), nil
	case strings.Contains(v, "T"):
		return time.ParseInLocation(floatingLayout, v, time.UTC)
	default:
		return time.ParseInLocation(dateLayout, v, time.UTC)
	}
}

// wallClock keeps t's clock reading and drops its zone.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
