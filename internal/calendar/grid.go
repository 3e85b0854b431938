package calendar

import (
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

const (
	// MaxWeeks is the most weeks a month can span in a Sunday-first grid.
	MaxWeeks = 6
	// DefaultMaxPerDay is how many events a day cell lists before "+N more".
	DefaultMaxPerDay = 3
)

// Day is one cell of the month grid. Cells outside the month carry the
// adjacent calendar date but never events.
type Day struct {
	Date    time.Time     `json:"date"`
	InMonth bool          `json:"in_month"`
	IsToday bool          `json:"is_today"`
	Events  []model.Event `json:"events"`
}

// Visible returns the events a cell shows when limited to max entries.
func (d Day) Visible(max int) []model.Event {
	if max < 0 || len(d.Events) <= max {
		return d.Events
	}
	return d.Events[:max]
}

// More returns how many events are summarised as "+N more".
func (d Day) More(max int) int {
	if max < 0 || len(d.Events) <= max {
		return 0
	}
	return len(d.Events) - max
}

// Week is a Sunday-first row of seven days.
type Week [7]Day

// Month is the laid-out grid for one calendar month.
type Month struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Weeks     []Week     `json:"weeks"`
	MaxPerDay int        `json:"max_per_day"`
}

// Day returns the cell for day n of the month.
func (m Month) Day(n int) (Day, bool) {
	for _, w := range m.Weeks {
		for _, d := range w {
			if d.InMonth && d.Date.Day() == n {
				return d, true
			}
		}
	}
	return Day{}, false
}

// EventCount is the number of events placed in the grid.
func (m Month) EventCount() int {
	n := 0
	for _, w := range m.Weeks {
		for _, d := range w {
			n += len(d.Events)
		}
	}
	return n
}

type buildOptions struct {
	today     time.Time
	maxPerDay int
	loc       *time.Location
}

// Option configures BuildMonth.
type Option func(*buildOptions)

// WithToday sets the date flagged as today. Defaults to time.Now().
func WithToday(t time.Time) Option {
	return func(o *buildOptions) { o.today = t }
}

// WithMaxPerDay sets the per-day display cap carried on the result.
func WithMaxPerDay(n int) Option {
	return func(o *buildOptions) { o.maxPerDay = n }
}

// WithLocation sets the location of the generated cell dates.
func WithLocation(loc *time.Location) Option {
	return func(o *buildOptions) { o.loc = loc }
}

// BuildMonth lays out a Sunday-first grid for the month and places each
// event in the cell of its start date. Events are expected to be already
// filtered to the month; anything starting outside it is ignored. Weeks
// after the one holding the last day of the month are omitted.
func BuildMonth(year int, month time.Month, events []model.Event, opts ...Option) Month {
	o := buildOptions{today: time.Now(), maxPerDay: DefaultMaxPerDay, loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, o.loc)
	daysInMonth := DaysIn(year, month)
	lead := int(first.Weekday())

	byDay := make(map[int][]model.Event, daysInMonth)
	for _, e := range events {
		if e.Start.Year() != year || e.Start.Month() != month {
			continue
		}
		byDay[e.Start.Day()] = append(byDay[e.Start.Day()], e)
	}
	for _, list := range byDay {
		sort.SliceStable(list, func(i, j int) bool { return eventLess(&list[i], &list[j]) })
	}

	m := Month{Year: year, Month: month, MaxPerDay: o.maxPerDay}
	day := 1
	for w := 0; w < MaxWeeks && day <= daysInMonth; w++ {
		var week Week
		for col := 0; col < 7; col++ {
			offset := w*7 + col - lead
			date := first.AddDate(0, 0, offset)
			if (w == 0 && col < lead) || day > daysInMonth {
				week[col] = Day{Date: date, Events: []model.Event{}}
				continue
			}
			cell := byDay[day]
			if cell == nil {
				cell = []model.Event{}
			}
			week[col] = Day{
				Date:    date,
				InMonth: true,
				IsToday: sameDate(date, o.today),
				Events:  cell,
			}
			day++
		}
		m.Weeks = append(m.Weeks, week)
	}
	return m
}

func eventLess(a, b *model.Event) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}
