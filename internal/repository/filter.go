package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

// filterConflicts keeps the events that share the candidate's audience and
// conflict with it under model.Conflicts.
func filterConflicts(candidate *model.Event, events []model.Event) []model.Event {
	out := events[:0]
	for i := range events {
		if candidate.SharesScope(&events[i]) && model.Conflicts(candidate, &events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// inRange reports start <= t < end, with nil bounds left open.
func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && !t.Before(*end) {
		return false
	}
	return true
}

// sortEvents orders by start time, then id.
func sortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
}

func validateCancel(reason, actor string) error {
	var problems []string
	if strings.TrimSpace(reason) == "" {
		problems = append(problems, "cancel reason is required")
	}
	if strings.TrimSpace(actor) == "" {
		problems = append(problems, "actor is required")
	}
	if len(problems) > 0 {
		return &model.ValidationError{Problems: problems}
	}
	return nil
}
