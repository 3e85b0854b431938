package model

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Conflicts is the single conflict rule used everywhere: two events conflict
// when both are live, they are different events and their effective
// intervals overlap. House scope is not considered here; see SharesScope.
func Conflicts(a, b *Event) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ID == b.ID {
		return false
	}
	if a.IsCancelled || b.IsCancelled {
		return false
	}
	return Overlaps(a.Start, a.EffectiveEnd(), b.Start, b.EffectiveEnd())
}

// ConflictsWith is Conflicts(e, other).
func (e *Event) ConflictsWith(other *Event) bool {
	return Conflicts(e, other)
}

// SharesScope reports whether two events can collide by audience: they
// belong to the same house, or at least one of them is community-wide.
func (e *Event) SharesScope(other *Event) bool {
	if e.HouseID == nil || other.HouseID == nil {
		return true
	}
	return *e.HouseID == *other.HouseID
}
