package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/calendar"
	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
	"github.com/Shivanand-hulikatti/house-calendar/internal/repository"
	"github.com/Shivanand-hulikatti/house-calendar/internal/service"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewCalendarService(repository.NewMemoryEventRepository(nil),
		service.WithLogger(logger),
		service.WithClock(func() time.Time { return time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC) }),
		service.WithLocation(time.UTC),
	)
	srv := httptest.NewServer(NewRouter(NewCalendarHandler(svc, logger), logger))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status %d, want %d: %s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

const townHall = `{
	"title": "Town hall", "event_type": "CampusActivity", "category": "Mandatory",
	"start": "2024-03-04T19:30:00Z", "end": "2024-03-04T21:00:00Z",
	"location": "Main Hall", "actor": "admin"
}`

const avMeeting = `{
	"title": "AV meeting", "event_type": "CampusActivity", "category": "House",
	"start": "2024-03-04T19:00:00Z", "end": "2024-03-04T20:30:00Z",
	"house_id": "AV", "actor": "admin"
}`

func TestHealthAndHouses(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, srv.URL+"/houses", "")
	expectStatus(t, resp, http.StatusOK)
	houses := decode[[]model.House](t, resp)
	if len(houses) != 7 || houses[0].ID != "AV" {
		t.Errorf("houses = %+v", houses)
	}
}

func TestCreateReportsConflicts(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/events", townHall)
	expectStatus(t, resp, http.StatusCreated)
	first := decode[model.ScheduleResult](t, resp)

	resp = do(t, http.MethodPost, srv.URL+"/events", avMeeting)
	expectStatus(t, resp, http.StatusCreated)
	second := decode[model.ScheduleResult](t, resp)
	if len(second.Conflicts) != 1 || second.Conflicts[0].ID != first.ID {
		t.Errorf("conflicts = %+v", second.Conflicts)
	}

	resp = do(t, http.MethodGet, srv.URL+"/events?house=AV&from=2024-03-04&to=2024-03-05", "")
	expectStatus(t, resp, http.StatusOK)
	events := decode[[]model.Event](t, resp)
	if len(events) != 2 || events[0].ID != second.ID || events[1].HouseName != "" {
		t.Fatalf("house view = %+v", events)
	}
	if events[0].HouseName != "Ashford Village" {
		t.Errorf("house name = %q", events[0].HouseName)
	}
}

func TestCreateValidation(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"event_type":"Meal","category":"Optional","start":"2024-03-04T07:00:00Z","actor":"admin"}`},
		{"end before start", `{"title":"x","event_type":"Meal","category":"Optional","start":"2024-03-04T07:00:00Z","end":"2024-03-04T06:00:00Z","actor":"admin"}`},
		{"unknown house", `{"title":"x","event_type":"Meal","category":"Optional","start":"2024-03-04T07:00:00Z","house_id":"ZZ","actor":"admin"}`},
		{"unknown type", `{"title":"x","event_type":"Party","category":"Optional","start":"2024-03-04T07:00:00Z","actor":"admin"}`},
		{"unknown field", `{"title":"x","colour":"red"}`},
		{"not json", `title=x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/events", tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
		})
	}
}

func TestCancelKeepsEventAddressable(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/events", townHall)
	expectStatus(t, resp, http.StatusCreated)
	id := decode[model.ScheduleResult](t, resp).ID
	path := srv.URL + "/events/" + itoa(id)

	resp = do(t, http.MethodPost, path+"/cancel", `{"reason":""}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodPost, path+"/cancel", `{"reason":"rain","actor":"admin"}`)
	expectStatus(t, resp, http.StatusOK)
	if e := decode[model.Event](t, resp); !e.IsCancelled {
		t.Errorf("cancel response = %+v", e)
	}

	resp = do(t, http.MethodGet, srv.URL+"/events?from=2024-03-01&to=2024-04-01", "")
	expectStatus(t, resp, http.StatusOK)
	if events := decode[[]model.Event](t, resp); len(events) != 0 {
		t.Errorf("cancelled event listed: %+v", events)
	}

	resp = do(t, http.MethodGet, path, "")
	expectStatus(t, resp, http.StatusOK)
	if e := decode[model.Event](t, resp); !e.IsCancelled || e.CancelReason == nil {
		t.Errorf("get = %+v", e)
	}

	resp = do(t, http.MethodDelete, path, "")
	expectStatus(t, resp, http.StatusNoContent)
	resp = do(t, http.MethodGet, path, "")
	expectStatus(t, resp, http.StatusNotFound)
	resp = do(t, http.MethodDelete, path, "")
	expectStatus(t, resp, http.StatusNotFound)
	resp = do(t, http.MethodPost, path+"/cancel", `{"reason":"rain","actor":"admin"}`)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestUpdateAndClone(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/events", avMeeting)
	expectStatus(t, resp, http.StatusCreated)
	id := decode[model.ScheduleResult](t, resp).ID

	moved := strings.Replace(avMeeting, "2024-03-04T19:00:00Z", "2024-03-04T18:00:00Z", 1)
	resp = do(t, http.MethodPut, srv.URL+"/events/"+itoa(id), moved)
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodGet, srv.URL+"/events/"+itoa(id), "")
	expectStatus(t, resp, http.StatusOK)
	e := decode[model.Event](t, resp)
	if e.Start.Hour() != 18 || e.ModifiedBy == nil {
		t.Errorf("after update = %+v", e)
	}

	resp = do(t, http.MethodPut, srv.URL+"/events/999", moved)
	expectStatus(t, resp, http.StatusNotFound)
	resp = do(t, http.MethodGet, srv.URL+"/events/abc", "")
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodPost, srv.URL+"/events/"+itoa(id)+"/clone", `{"actor":"admin"}`)
	expectStatus(t, resp, http.StatusCreated)
	clone := decode[model.ScheduleResult](t, resp)
	if clone.ID == id || len(clone.Conflicts) != 1 {
		t.Errorf("clone = %+v", clone)
	}
}

func TestCheckConflictsEndpoint(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/events", townHall)
	expectStatus(t, resp, http.StatusCreated)

	resp = do(t, http.MethodPost, srv.URL+"/events/conflicts", avMeeting)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.ConflictsResponse](t, resp); len(got.Conflicts) != 1 {
		t.Errorf("conflicts = %+v", got)
	}

	touching := strings.NewReplacer(
		"2024-03-04T19:00:00Z", "2024-03-04T21:00:00Z",
		"2024-03-04T20:30:00Z", "2024-03-04T22:00:00Z",
	).Replace(avMeeting)
	resp = do(t, http.MethodPost, srv.URL+"/events/conflicts", touching)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.ConflictsResponse](t, resp); len(got.Conflicts) != 0 {
		t.Errorf("touching conflicts = %+v", got)
	}

	resp = do(t, http.MethodGet, srv.URL+"/events", "")
	expectStatus(t, resp, http.StatusOK)
	if events := decode[[]model.Event](t, resp); len(events) != 1 {
		t.Errorf("conflict check saved events: %d", len(events))
	}
}

func TestCheckConflictsForEditExcludesItself(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/events", avMeeting)
	expectStatus(t, resp, http.StatusCreated)
	id := decode[model.ScheduleResult](t, resp).ID

	resp = do(t, http.MethodPost, srv.URL+"/events/conflicts", avMeeting)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.ConflictsResponse](t, resp); len(got.Conflicts) != 1 || got.Conflicts[0].ID != id {
		t.Errorf("new candidate conflicts = %+v", got)
	}

	edit := strings.Replace(avMeeting, "{", `{"id": `+itoa(id)+",", 1)
	resp = do(t, http.MethodPost, srv.URL+"/events/conflicts", edit)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.ConflictsResponse](t, resp); len(got.Conflicts) != 0 {
		t.Errorf("unchanged edit conflicts = %+v", got)
	}

	resp = do(t, http.MethodPost, srv.URL+"/events", townHall)
	expectStatus(t, resp, http.StatusCreated)
	hall := decode[model.ScheduleResult](t, resp).ID
	resp = do(t, http.MethodPost, srv.URL+"/events/conflicts", edit)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.ConflictsResponse](t, resp); len(got.Conflicts) != 1 || got.Conflicts[0].ID != hall {
		t.Errorf("edit conflicts = %+v", got)
	}
}

func TestMonthViewAndExportImport(t *testing.T) {
	srv := newServer(t)
	for _, body := range []string{townHall, avMeeting} {
		expectStatus(t, do(t, http.MethodPost, srv.URL+"/events", body), http.StatusCreated)
	}

	resp := do(t, http.MethodGet, srv.URL+"/calendar/2024/3?house=SP", "")
	expectStatus(t, resp, http.StatusOK)
	grid := decode[calendar.Month](t, resp)
	if len(grid.Weeks) != 6 || grid.EventCount() != 1 || grid.MaxPerDay != 3 {
		t.Errorf("grid: %d weeks, %d events, cap %d", len(grid.Weeks), grid.EventCount(), grid.MaxPerDay)
	}
	today, _ := grid.Day(6)
	if !today.IsToday {
		t.Error("March 6 should be flagged today")
	}

	resp = do(t, http.MethodGet, srv.URL+"/calendar/2024/13", "")
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodGet, srv.URL+"/calendar/2024/3.ics", "")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	ics, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(ics, []byte("BEGIN:VEVENT")) {
		t.Fatalf("no events exported:\n%s", ics)
	}

	other := newServer(t)
	resp = do(t, http.MethodPost, other.URL+"/events/import?actor=admin", string(ics))
	expectStatus(t, resp, http.StatusOK)
	res := decode[service.ImportResult](t, resp)
	if len(res.Created) != 2 {
		t.Errorf("import = %+v", res)
	}

	resp = do(t, http.MethodPost, other.URL+"/events/import", string(ics))
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodOptions, srv.URL+"/events", "")
	expectStatus(t, resp, http.StatusNoContent)
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestParseTimeParam(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-04", time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-04T19:30", time.Date(2024, time.March, 4, 19, 30, 0, 0, time.UTC), true},
		{"2024-03-04T19:30:00+02:00", time.Date(2024, time.March, 4, 19, 30, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := parseTimeParam(tt.in)
		if (err == nil) != tt.ok || !got.Equal(tt.want) {
			t.Errorf("parseTimeParam(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
