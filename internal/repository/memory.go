package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

// MemoryEventRepository keeps events in process memory. It follows the same
// contract as EventRepository and is used when no database is configured.
type MemoryEventRepository struct {
	mu     sync.Mutex
	events map[int64]*model.Event
	nextID int64
	users  map[string]model.User
	now    func() time.Time
}

// NewMemoryEventRepository returns an empty store. Users supply creator
// display names; the built-in admin is always known.
func NewMemoryEventRepository(users []model.User) *MemoryEventRepository {
	admin := model.SystemAdmin()
	names := map[string]model.User{admin.ID: admin}
	for _, u := range users {
		names[u.ID] = u
	}
	return &MemoryEventRepository{
		events: make(map[int64]*model.Event),
		nextID: 1,
		users:  names,
		now:    time.Now,
	}
}

func (r *MemoryEventRepository) GetAll(_ context.Context) ([]model.Event, error) {
	return r.selectLive(func(*model.Event) bool { return true }), nil
}

func (r *MemoryEventRepository) GetByRange(_ context.Context, start, end time.Time) ([]model.Event, error) {
	return r.selectLive(func(e *model.Event) bool {
		return inRange(e.Start, &start, &end)
	}), nil
}

func (r *MemoryEventRepository) GetByHouse(_ context.Context, houseID string, start, end *time.Time) ([]model.Event, error) {
	return r.selectLive(func(e *model.Event) bool {
		if e.HouseID != nil && *e.HouseID != houseID {
			return false
		}
		return inRange(e.Start, start, end)
	}), nil
}

func (r *MemoryEventRepository) GetByID(_ context.Context, id int64) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.view(e), nil
}

func (r *MemoryEventRepository) GetByImportID(_ context.Context, importID string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *model.Event
	for _, e := range r.events {
		if e.ImportID != nil && *e.ImportID == importID && (found == nil || e.ID < found.ID) {
			found = e
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return r.view(found), nil
}

func (r *MemoryEventRepository) Create(_ context.Context, e *model.Event) (int64, error) {
	e.IsCancelled, e.CancelReason = false, nil
	if err := e.Validate(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextID
	e.CreatedAt = r.now()
	e.ModifiedBy, e.ModifiedAt = nil, nil
	r.nextID++
	r.events[e.ID] = e.Copy()
	return e.ID, nil
}

func (r *MemoryEventRepository) Update(_ context.Context, e *model.Event) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[e.ID]
	if !ok {
		return false, nil
	}
	modifiedAt := r.now()
	stored.Title = e.Title
	stored.Description = e.Description
	stored.Type = e.Type
	stored.Category = e.Category
	stored.Start = e.Start
	stored.End = copyTime(e.End)
	stored.HouseID = copyString(e.HouseID)
	stored.Location = e.Location
	stored.ModifiedBy = copyString(e.ModifiedBy)
	stored.ModifiedAt = &modifiedAt
	stored.IsRecurring = e.IsRecurring
	stored.RecurrencePattern = copyString(e.RecurrencePattern)
	stored.RecurrenceEnd = copyTime(e.RecurrenceEnd)

	e.ModifiedAt = copyTime(&modifiedAt)
	return true, nil
}

func (r *MemoryEventRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	for _, e := range r.events {
		if e.ParentID != nil && *e.ParentID == id {
			e.ParentID = nil
		}
	}
	return true, nil
}

func (r *MemoryEventRepository) Cancel(_ context.Context, id int64, reason, actor string) (bool, error) {
	if err := validateCancel(reason, actor); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return false, nil
	}
	now := r.now()
	e.IsCancelled = true
	e.CancelReason = &reason
	e.ModifiedBy = &actor
	e.ModifiedAt = &now
	return true, nil
}

func (r *MemoryEventRepository) GetConflicts(_ context.Context, candidate *model.Event) ([]model.Event, error) {
	live := r.selectLive(func(e *model.Event) bool { return e.ID != candidate.ID })
	return filterConflicts(candidate, live), nil
}

// selectLive returns copies of the non-cancelled events matching keep, in
// start order.
func (r *MemoryEventRepository) selectLive(keep func(*model.Event) bool) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Event
	for _, e := range r.events {
		if e.IsCancelled || !keep(e) {
			continue
		}
		out = append(out, *r.view(e))
	}
	sortEvents(out)
	return out
}

// view returns a copy of a stored event with its display joins filled in.
// Callers must hold r.mu.
func (r *MemoryEventRepository) view(e *model.Event) *model.Event {
	c := e.Copy()
	if c.HouseID != nil {
		if h, ok := model.LookupHouse(*c.HouseID); ok {
			c.HouseName = h.Name
		}
	}
	if u, ok := r.users[c.CreatedBy]; ok {
		c.CreatedByName = u.DisplayName()
	}
	return c
}

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
