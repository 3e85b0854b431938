// Package seed generates sample events for a fresh calendar.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/calendar"
	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

const creator = "admin"

type activity struct {
	title    string
	typ      model.EventType
	category model.Category
	location string
}

var activities = []activity{
	{"Movie Night", model.CampusActivity, model.Optional, "Common Room"},
	{"Study Group", model.SchoolActivity, model.Optional, "Study Room"},
	{"Game Night", model.CampusActivity, model.Optional, "Recreation Room"},
	{"House Outing", model.OffCampusActivity, model.Optional, "Meet at Lobby"},
	{"Life Skills Workshop", model.SchoolActivity, model.Mandatory, "Conference Room"},
}

var (
	appointments = []string{"Doctor Visit", "Dental Checkup", "Therapy Session", "Medication Review"}
	jobs         = []string{"Job Interview", "Work Training", "Career Counseling", "Resume Workshop"}
)

// DemoEvents builds the sample data set around today: community events,
// daily meals from 15 days before to 45 days after, weekly house meetings
// and cleaning, and randomly placed activities and appointments.
func DemoEvents(today time.Time, rnd *rand.Rand) []model.Event {
	today = calendar.StartOfDay(today)
	first, last := today.AddDate(0, 0, -15), today.AddDate(0, 0, 45)
	span := int(last.Sub(first).Hours() / 24)

	var events []model.Event
	add := func(title, desc string, typ model.EventType, cat model.Category, start time.Time, length time.Duration, house *string, location string) {
		events = append(events, model.Event{
			Title:       title,
			Description: desc,
			Type:        typ,
			Category:    cat,
			Start:       start,
			End:         model.TimePtr(start.Add(length)),
			HouseID:     house,
			Location:    location,
			CreatedBy:   creator,
		})
	}

	monday := calendar.NextWeekday(today, time.Monday)
	add("Community Meeting", "Monthly community meeting for all houses",
		model.CampusActivity, model.Mandatory, monday.Add(19*time.Hour), 90*time.Minute, nil, "Main Hall")
	add("Fire Safety Drill", "Emergency evacuation drill for all residents",
		model.CampusActivity, model.Mandatory, today.AddDate(0, 0, 7).Add(10*time.Hour), time.Hour, nil, "All Buildings")
	bbq := calendar.LastWeekdayOfMonth(today, time.Saturday)
	add("Community BBQ", "End of month barbecue for all residents and staff",
		model.CampusActivity, model.Optional, bbq.Add(17*time.Hour), 3*time.Hour, nil, "Community Garden")

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		add("Breakfast", "Community breakfast", model.Meal, model.Mandatory, d.Add(7*time.Hour), time.Hour, nil, "Dining Hall")
		add("Lunch", "Community lunch", model.Meal, model.Mandatory, d.Add(12*time.Hour), time.Hour, nil, "Dining Hall")
		add("Dinner", "Community dinner", model.Meal, model.Mandatory, d.Add(18*time.Hour), time.Hour, nil, "Dining Hall")
	}

	tuesday := calendar.NextWeekday(today, time.Tuesday)
	saturday := calendar.NextWeekday(today, time.Saturday)
	for _, h := range model.Houses() {
		house := model.StringPtr(h.ID)
		add(h.ID+" House Meeting", "Weekly meeting for "+h.Name+" residents",
			model.CampusActivity, model.HouseOnly, tuesday.Add(19*time.Hour), time.Hour, house, h.Name+" Common Room")
		add("House Cleaning", "Weekly house cleaning and maintenance",
			model.CampusActivity, model.Mandatory, saturday.Add(9*time.Hour), 2*time.Hour, house, h.Name)

		for range 5 {
			day := first.AddDate(0, 0, rnd.IntN(span))
			a := activities[rnd.IntN(len(activities))]
			hour := 14 + rnd.IntN(6)
			length := time.Duration(1+rnd.IntN(2)) * time.Hour
			add(a.title, fmt.Sprintf("%s for %s residents", a.title, h.Name),
				a.typ, a.category, day.Add(time.Duration(hour)*time.Hour), length, house, a.location)
		}
	}

	ids := model.HouseIDs()
	for range 10 {
		day := today.AddDate(0, 0, 1+rnd.IntN(29))
		house := model.StringPtr(ids[rnd.IntN(len(ids))])
		hour := 9 + rnd.IntN(7)
		add(appointments[rnd.IntN(len(appointments))], "Medical appointment",
			model.MedicalAppointment, model.Mandatory, day.Add(time.Duration(hour)*time.Hour), 30*time.Minute, house, "Medical Center")
	}
	for range 8 {
		day := today.AddDate(0, 0, 1+rnd.IntN(29))
		house := model.StringPtr(ids[rnd.IntN(len(ids))])
		hour := 9 + rnd.IntN(8)
		add(jobs[rnd.IntN(len(jobs))], "Employment-related activity",
			model.Job, model.Mandatory, day.Add(time.Duration(hour)*time.Hour), time.Hour, house, "Career Center")
	}
	return events
}

// Store is what Load needs from an event repository.
type Store interface {
	GetAll(ctx context.Context) ([]model.Event, error)
	Create(ctx context.Context, e *model.Event) (int64, error)
}

// Load creates events in store unless it already holds live events.
// Individual failures are logged and skipped; it returns how many were
// created.
func Load(ctx context.Context, store Store, events []model.Event, logger *slog.Logger) (int, error) {
	existing, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("check existing events: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("calendar already has events, skipping demo data", "existing", len(existing))
		return 0, nil
	}

	created := 0
	for i := range events {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if _, err := store.Create(ctx, &events[i]); err != nil {
			logger.Warn("demo event not created", "title", events[i].Title, "err", err)
			continue
		}
		created++
	}
	logger.Info("demo data loaded", "created", created, "failed", len(events)-created)
	return created, nil
}
