// Package repository implements event storage for the house calendar.
// It uses pgx directly (no ORM); MemoryEventRepository provides the same
// contract without a database.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/house-calendar/internal/model"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("not found")

// ErrStorage is wrapped by every failure of the underlying database.
var ErrStorage = errors.New("storage failure")

// DBTX is the part of pgxpool.Pool and pgx.Tx the repository needs:
// run a query for rows, run a write for an affected count, and read a
// single row back from an INSERT ... RETURNING.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository handles persistence for events in PostgreSQL.
type EventRepository struct {
	db  DBTX
	now func() time.Time
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

const selectEvents = `
	SELECT e.id, e.title, e.description, e.event_type, e.category,
	       e.start_at, e.end_at, e.house_id, e.location,
	       e.created_by, e.created_at, e.modified_by, e.modified_at,
	       e.is_recurring, e.recurrence_pattern, e.recurrence_end, e.parent_id,
	       e.is_cancelled, e.cancel_reason, e.import_id,
	       COALESCE(h.name, ''), COALESCE(u.full_name, '')
	FROM events e
	LEFT JOIN houses h ON h.id = e.house_id
	LEFT JOIN users u ON u.id = e.created_by`

const orderEvents = ` ORDER BY e.start_at ASC, e.id ASC`

// GetAll returns every live event in start order.
func (r *EventRepository) GetAll(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, "list events",
		selectEvents+` WHERE NOT e.is_cancelled`+orderEvents)
}

// GetByRange returns live events with start <= event start < end.
func (r *EventRepository) GetByRange(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	return r.list(ctx, "list events by range",
		selectEvents+` WHERE NOT e.is_cancelled AND e.start_at >= $1 AND e.start_at < $2`+orderEvents,
		start, end)
}

// GetByHouse returns live events of the house plus community events,
// optionally narrowed to a half-open range.
func (r *EventRepository) GetByHouse(ctx context.Context, houseID string, start, end *time.Time) ([]model.Event, error) {
	var b strings.Builder
	b.WriteString(selectEvents)
	b.WriteString(` WHERE NOT e.is_cancelled AND (e.house_id = $1 OR e.house_id IS NULL)`)
	args := []any{houseID}
	if start != nil {
		args = append(args, *start)
		fmt.Fprintf(&b, ` AND e.start_at >= $%d`, len(args))
	}
	if end != nil {
		args = append(args, *end)
		fmt.Fprintf(&b, ` AND e.start_at < $%d`, len(args))
	}
	b.WriteString(orderEvents)
	return r.list(ctx, "list events by house", b.String(), args...)
}

// GetByID returns a single event, cancelled or not, or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	rows, err := r.list(ctx, "get event", selectEvents+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// GetByImportID returns the event imported under the given external id.
func (r *EventRepository) GetByImportID(ctx context.Context, importID string) (*model.Event, error) {
	rows, err := r.list(ctx, "get event by import id",
		selectEvents+` WHERE e.import_id = $1`+orderEvents+` LIMIT 1`, importID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Create validates and inserts e, filling in its id and created time.
// New events are always live; cancellation fields on e are cleared.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (int64, error) {
	e.IsCancelled, e.CancelReason = false, nil
	if err := e.Validate(); err != nil {
		return 0, err
	}
	createdAt := r.now()

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (
			title, description, event_type, category, start_at, end_at,
			house_id, location, created_by, created_at, is_recurring,
			recurrence_pattern, recurrence_end, parent_id, import_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		e.Title, e.Description, e.Type.String(), e.Category.String(), e.Start, e.End,
		e.HouseID, e.Location, e.CreatedBy, createdAt, e.IsRecurring,
		e.RecurrencePattern, e.RecurrenceEnd, e.ParentID, e.ImportID,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert event", err)
	}
	e.ID = id
	e.CreatedAt = createdAt
	return id, nil
}

// Update replaces the mutable fields of the event with e.ID and stamps the
// modified time. It reports whether the event existed.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	modifiedAt := r.now()

	tag, err := r.db.Exec(ctx,
		`UPDATE events SET
			title = $1, description = $2, event_type = $3, category = $4,
			start_at = $5, end_at = $6, house_id = $7, location = $8,
			modified_by = $9, modified_at = $10, is_recurring = $11,
			recurrence_pattern = $12, recurrence_end = $13
		WHERE id = $14`,
		e.Title, e.Description, e.Type.String(), e.Category.String(),
		e.Start, e.End, e.HouseID, e.Location,
		e.ModifiedBy, modifiedAt, e.IsRecurring,
		e.RecurrencePattern, e.RecurrenceEnd, e.ID,
	)
	if err != nil {
		return false, storageErr("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	e.ModifiedAt = &modifiedAt
	return true, nil
}

// Delete removes the event permanently. It reports whether it existed.
func (r *EventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete event", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel marks the event cancelled without removing it. It reports whether
// the event existed.
func (r *EventRepository) Cancel(ctx context.Context, id int64, reason, actor string) (bool, error) {
	if err := validateCancel(reason, actor); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET
			is_cancelled = TRUE, cancel_reason = $1, modified_by = $2, modified_at = $3
		WHERE id = $4`,
		reason, actor, r.now(), id,
	)
	if err != nil {
		return false, storageErr("cancel event", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetConflicts returns live events that share the candidate's audience and
// overlap it in time. The query only narrows the candidates; the overlap
// decision is model.Conflicts so it matches Event.ConflictsWith exactly.
func (r *EventRepository) GetConflicts(ctx context.Context, candidate *model.Event) ([]model.Event, error) {
	rows, err := r.list(ctx, "list conflicts",
		selectEvents+`
		WHERE NOT e.is_cancelled
		  AND e.id <> $1
		  AND ($2::text IS NULL OR e.house_id = $2 OR e.house_id IS NULL)
		  AND e.start_at < $3
		  AND (e.end_at IS NULL OR e.end_at > $4)`+orderEvents,
		candidate.ID, candidate.HouseID, candidate.EffectiveEnd(), candidate.Start,
	)
	if err != nil {
		return nil, err
	}
	return filterConflicts(candidate, rows), nil
}

func (r *EventRepository) list(ctx context.Context, op, sql string, args ...any) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr("scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var (
		e         model.Event
		eventType string
		category  string
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &eventType, &category,
		&e.Start, &e.End, &e.HouseID, &e.Location,
		&e.CreatedBy, &e.CreatedAt, &e.ModifiedBy, &e.ModifiedAt,
		&e.IsRecurring, &e.RecurrencePattern, &e.RecurrenceEnd, &e.ParentID,
		&e.IsCancelled, &e.CancelReason, &e.ImportID,
		&e.HouseName, &e.CreatedByName,
	)
	if err != nil {
		return e, err
	}
	if e.Type, err = model.ParseEventType(eventType); err != nil {
		return e, err
	}
	if e.Category, err = model.ParseCategory(category); err != nil {
		return e, err
	}
	return e, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
