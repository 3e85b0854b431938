// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
	"github.com/Shivanand-hulikatti/house-calendar/internal/repository"
	"github.com/Shivanand-hulikatti/house-calendar/internal/service"
)

const (
	maxJSONBody = 1 << 20
	maxICSBody  = 5 << 20
)

// CalendarHandler holds all HTTP handlers for the calendar API.
type CalendarHandler struct {
	svc    *service.CalendarService
	logger *slog.Logger
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(svc *service.CalendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service errors onto status codes: validation
// problems are 400, misses 404, anything else 500.
func (h *CalendarHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "validation failed", Problems: verr.Problems})
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		h.logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func eventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// naive drops the zone of t and keeps its wall clock. Event times are
// stored without a zone.
func naive(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func naivePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := naive(*t)
	return &v
}

func eventFromRequest(req model.EventRequest) *model.Event {
	e := req.ToEvent()
	e.Start = naive(e.Start)
	e.End = naivePtr(e.End)
	e.RecurrenceEnd = naivePtr(e.RecurrenceEnd)
	return e
}

// parseTimeParam accepts RFC 3339, "2006-01-02T15:04" or a bare date.
func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return naive(t), nil
	}
	for _, layout := range []string{"2006-01-02T15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", v)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// ListHouses handles GET /houses
func (h *CalendarHandler) ListHouses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Houses())
}

// ListEvents handles GET /events?from=&to=&house=
// Returns live events in start order. Both bounds are optional.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var q service.Query
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		t, err := parseTimeParam(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, p.name+": "+err.Error())
			return
		}
		*p.dst = &t
	}
	q.HouseID = r.URL.Query().Get("house")

	events, err := h.svc.Events(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /events
// Saves the event and returns its id with any overlapping events.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Schedule(r.Context(), eventFromRequest(req))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetEvent handles GET /events/{id}
// Cancelled events are still returned.
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *CalendarHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e := eventFromRequest(req)
	e.ID = id
	res, err := h.svc.Reschedule(r.Context(), e, req.Actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !res.Found {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteEvent handles DELETE /events/{id}
func (h *CalendarHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelEvent handles POST /events/{id}/cancel
// The event stays addressable by id with is_cancelled set.
func (h *CalendarHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req model.CancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	ok, err := h.svc.Cancel(r.Context(), id, req.Reason, req.Actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	event, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CloneEvent handles POST /events/{id}/clone
func (h *CalendarHandler) CloneEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req model.ActorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Clone(r.Context(), id, req.Actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// CheckConflicts handles POST /events/conflicts
// Reports overlaps for a candidate without saving it. An optional "id"
// marks the candidate as an edit of that stored event.
func (h *CalendarHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req model.ConflictCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	candidate := eventFromRequest(req.EventRequest)
	candidate.ID = req.ID
	conflicts, err := h.svc.CheckConflicts(r.Context(), candidate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ConflictsResponse{Conflicts: conflicts})
}

// MonthView handles GET /calendar/{year}/{month}
// A month ending in ".ics" returns the month as an iCalendar feed instead
// of the JSON grid.
func (h *CalendarHandler) MonthView(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	monthParam, asICS := strings.CutSuffix(chi.URLParam(r, "month"), ".ics")
	month, err := strconv.Atoi(monthParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	house := r.URL.Query().Get("house")

	if asICS {
		var buf bytes.Buffer
		if err := h.svc.ExportMonth(r.Context(), &buf, year, time.Month(month), house); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="calendar-%04d-%02d.ics"`, year, month))
		_, _ = io.Copy(w, &buf)
		return
	}

	grid, err := h.svc.MonthView(r.Context(), year, time.Month(month), house)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// ImportEvents handles POST /events/import?actor=
// The body is an iCalendar document.
func (h *CalendarHandler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxICSBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "calendar too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	res, err := h.svc.Import(r.Context(), bytes.NewReader(body), r.URL.Query().Get("actor"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
