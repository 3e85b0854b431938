package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
	"github.com/Shivanand-hulikatti/house-calendar/internal/repository"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func newService(t *testing.T) (*CalendarService, *repository.MemoryEventRepository) {
	t.Helper()
	repo := repository.NewMemoryEventRepository(nil)
	svc := NewCalendarService(repo,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return at(6, 12, 0) }),
		WithLocation(time.UTC),
	)
	return svc, repo
}

func event(title string, house string, start time.Time, end *time.Time) *model.Event {
	e := &model.Event{
		Title:     title,
		Type:      model.CampusActivity,
		Category:  model.Optional,
		Start:     start,
		End:       end,
		CreatedBy: "admin",
	}
	if house != "" {
		e.HouseID = model.StringPtr(house)
	}
	return e
}

func TestScheduleReportsConflictsButSaves(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Schedule(ctx, event("Town hall", "", at(4, 19, 30), model.TimePtr(at(4, 21, 0))))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(first.Conflicts) != 0 || first.Conflicts == nil {
		t.Errorf("first event conflicts = %v", first.Conflicts)
	}

	second, err := svc.Schedule(ctx, event("AV meeting", "AV", at(4, 19, 0), model.TimePtr(at(4, 20, 30))))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if second.ID == 0 || !second.Found {
		t.Errorf("second result = %+v", second)
	}
	if len(second.Conflicts) != 1 || second.Conflicts[0].ID != first.ID {
		t.Errorf("conflicts = %+v, want the town hall", second.Conflicts)
	}
	if _, err := svc.Get(ctx, second.ID); err != nil {
		t.Errorf("conflicting event was not saved: %v", err)
	}
}

func TestScheduleNormalizesRecurrence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	e := event("Study Group", "", at(5, 16, 0), nil)
	e.IsRecurring = true
	e.RecurrencePattern = model.StringPtr("Weekly")
	res, err := svc.Schedule(ctx, e)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	got, _ := svc.Get(ctx, res.ID)
	if got.RecurrencePattern == nil || *got.RecurrencePattern != "FREQ=WEEKLY" {
		t.Errorf("pattern = %v", got.RecurrencePattern)
	}

	bad := event("Nonsense", "", at(5, 16, 0), nil)
	bad.IsRecurring = true
	bad.RecurrencePattern = model.StringPtr("every other blue moon")
	if _, err := svc.Schedule(ctx, bad); !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad pattern err = %v", err)
	}
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	res, _ := svc.Schedule(ctx, event("Game Night", "NL", at(7, 19, 0), nil))
	other, _ := svc.Schedule(ctx, event("NL Meeting", "NL", at(7, 21, 0), nil))

	moved := event("Game Night", "NL", at(7, 20, 30), nil)
	moved.ID = res.ID
	moved.CreatedBy = "someone-else"
	out, err := svc.Reschedule(ctx, moved, "admin")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !out.Found || len(out.Conflicts) != 1 || out.Conflicts[0].ID != other.ID {
		t.Errorf("result = %+v", out)
	}
	got, _ := svc.Get(ctx, res.ID)
	if got.CreatedBy != "admin" || got.ModifiedBy == nil || *got.ModifiedBy != "admin" {
		t.Errorf("audit fields = %q, %v", got.CreatedBy, got.ModifiedBy)
	}

	ghost := event("Ghost", "", at(7, 9, 0), nil)
	ghost.ID = 404
	out, err = svc.Reschedule(ctx, ghost, "admin")
	if err != nil || out.Found {
		t.Errorf("missing event = %+v, %v", out, err)
	}
	if _, err := svc.Reschedule(ctx, moved, " "); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank actor err = %v", err)
	}
}

func TestCancelThenQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	res, _ := svc.Schedule(ctx, event("BBQ", "", at(30, 17, 0), model.TimePtr(at(30, 20, 0))))

	ok, err := svc.Cancel(ctx, res.ID, "rain", "admin")
	if !ok || err != nil {
		t.Fatalf("Cancel = %v, %v", ok, err)
	}
	day, err := svc.Day(ctx, at(30, 8, 0), "")
	if err != nil || len(day) != 0 {
		t.Errorf("Day = %v, %v", day, err)
	}
	got, err := svc.Get(ctx, res.ID)
	if err != nil || !got.IsCancelled {
		t.Errorf("Get = %+v, %v", got, err)
	}

	ok, err = svc.Delete(ctx, res.ID)
	if !ok || err != nil {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if _, err := svc.Get(ctx, res.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if ok, _ := svc.Cancel(ctx, res.ID, "again", "admin"); ok {
		t.Error("cancel of deleted event reported found")
	}
}

func TestEventsQuery(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for _, e := range []*model.Event{
		event("Breakfast", "", at(10, 7, 0), nil),
		event("AV meeting", "AV", at(10, 19, 0), nil),
		event("SP meeting", "SP", at(11, 19, 0), nil),
		event("Lunch", "", at(12, 12, 0), nil),
	} {
		if _, err := svc.Schedule(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	from, to := at(10, 0, 0), at(12, 0, 0)

	tests := []struct {
		name  string
		q     Query
		count int
	}{
		{"everything", Query{}, 4},
		{"range", Query{From: &from, To: &to}, 3},
		{"from only", Query{From: &to}, 1},
		{"to only", Query{To: &to}, 3},
		{"house with community", Query{HouseID: "AV"}, 3},
		{"house in range", Query{HouseID: "SP", From: &from, To: &to}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Events(ctx, tt.q)
			if err != nil {
				t.Fatalf("Events: %v", err)
			}
			if len(got) != tt.count {
				t.Errorf("got %d events, want %d", len(got), tt.count)
			}
		})
	}

	if _, err := svc.Events(ctx, Query{HouseID: "ZZ"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("unknown house err = %v", err)
	}
	if _, err := svc.Events(ctx, Query{From: &to, To: &from}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("reversed range err = %v", err)
	}
}

func TestCheckConflictsDoesNotSave(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _ = svc.Schedule(ctx, event("Fire drill", "", at(13, 10, 0), model.TimePtr(at(13, 11, 0))))

	touching := event("Touching", "WH", at(13, 11, 0), model.TimePtr(at(13, 12, 0)))
	got, err := svc.CheckConflicts(ctx, touching)
	if err != nil || len(got) != 0 {
		t.Errorf("touching = %v, %v", got, err)
	}
	overlapping := event("Overlap", "WH", at(13, 10, 30), nil)
	got, err = svc.CheckConflicts(ctx, overlapping)
	if err != nil || len(got) != 1 {
		t.Errorf("overlap = %v, %v", got, err)
	}
	if all, _ := svc.Events(ctx, Query{}); len(all) != 1 {
		t.Errorf("CheckConflicts saved something: %d events", len(all))
	}
	if _, err := svc.CheckConflicts(ctx, &model.Event{}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("zero start err = %v", err)
	}
}

func TestClone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	orig := event("House Cleaning", "BP", at(9, 9, 0), model.TimePtr(at(9, 11, 0)))
	orig.IsRecurring = true
	orig.RecurrencePattern = model.StringPtr("weekly")
	res, _ := svc.Schedule(ctx, orig)

	clone, err := svc.Clone(ctx, res.ID, "admin")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.ID == res.ID || len(clone.Conflicts) != 1 {
		t.Errorf("clone result = %+v", clone)
	}
	got, _ := svc.Get(ctx, clone.ID)
	if got.IsRecurring || got.ParentID == nil || *got.ParentID != res.ID {
		t.Errorf("clone = %+v", got)
	}
	if _, err := svc.Clone(ctx, 999, "admin"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("clone of missing err = %v", err)
	}
}

func TestMonthView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for h := 7; h <= 10; h++ {
		_, _ = svc.Schedule(ctx, event("Session", "", at(6, h, 0), nil))
	}
	_, _ = svc.Schedule(ctx, event("SP only", "SP", at(8, 9, 0), nil))
	_, _ = svc.Schedule(ctx, event("April", "", time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC), nil))

	m, err := svc.MonthView(ctx, 2024, time.March, "AV")
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	if m.EventCount() != 4 {
		t.Errorf("event count = %d, want 4", m.EventCount())
	}
	day6, _ := m.Day(6)
	if !day6.IsToday || len(day6.Visible(m.MaxPerDay)) != 3 || day6.More(m.MaxPerDay) != 1 {
		t.Errorf("day 6 = today %v, %d visible, %d more", day6.IsToday, len(day6.Visible(m.MaxPerDay)), day6.More(m.MaxPerDay))
	}

	if _, err := svc.MonthView(ctx, 2024, 13, ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("month 13 err = %v", err)
	}
}

func TestExportThenImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _ = svc.Schedule(ctx, event("Movie Night", "HH", at(15, 20, 0), model.TimePtr(at(15, 22, 0))))
	_, _ = svc.Schedule(ctx, event("Dinner", "", at(15, 18, 0), model.TimePtr(at(15, 19, 0))))

	var buf bytes.Buffer
	if err := svc.ExportMonth(ctx, &buf, 2024, time.March, ""); err != nil {
		t.Fatalf("ExportMonth: %v", err)
	}
	if !strings.Contains(buf.String(), "House Calendar - March 2024") {
		t.Errorf("calendar name missing:\n%s", buf.String())
	}

	other, _ := newService(t)
	res, err := other.Import(ctx, bytes.NewReader(buf.Bytes()), "admin")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Created) != 2 || res.Duplicates != 0 || res.Batch == "" {
		t.Errorf("first import = %+v", res)
	}

	again, err := other.Import(ctx, bytes.NewReader(buf.Bytes()), "admin")
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if len(again.Created) != 0 || again.Duplicates != 2 {
		t.Errorf("second import = %+v", again)
	}

	if _, err := other.Import(ctx, strings.NewReader(""), "admin"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty body err = %v", err)
	}
	if _, err := other.Import(ctx, bytes.NewReader(buf.Bytes()), ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("missing actor err = %v", err)
	}
}

func TestNowIsNaiveWallClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	svc := NewCalendarService(repository.NewMemoryEventRepository(nil),
		WithClock(func() time.Time { return time.Date(2024, time.March, 6, 22, 30, 0, 0, time.UTC) }),
		WithLocation(loc),
	)
	want := time.Date(2024, time.March, 7, 0, 30, 0, 0, time.UTC)
	if got := svc.Now(); !got.Equal(want) {
		t.Errorf("Now = %v, want %v", got, want)
	}
}

func TestImportShiftsUTCTimesIntoCalendarZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	svc := NewCalendarService(repository.NewMemoryEventRepository(nil),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLocation(loc),
	)
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:test",
		"BEGIN:VEVENT",
		"UID:feed-1",
		"SUMMARY:Guest lecture",
		"DTSTART:20240304T150000Z",
		"DTEND:20240304T160000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	ctx := context.Background()
	res, err := svc.Import(ctx, strings.NewReader(body), "admin")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("created %v, want one event", res.Created)
	}
	got, err := svc.Get(ctx, res.Created[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := at(4, 10, 0); !got.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", got.Start, want)
	}
	if want := at(4, 11, 0); got.End == nil || !got.End.Equal(want) {
		t.Errorf("End = %v, want %v", got.End, want)
	}
}
