package model

import "fmt"

// EventType classifies what kind of activity an event is.
type EventType int

const (
	Meal EventType = iota
	CampusActivity
	OffCampusActivity
	SchoolActivity
	MedicalAppointment
	Job
)

var eventTypeNames = map[EventType]string{
	Meal:               "Meal",
	CampusActivity:     "CampusActivity",
	OffCampusActivity:  "OffCampusActivity",
	SchoolActivity:     "SchoolActivity",
	MedicalAppointment: "MedicalAppointment",
	Job:                "Job",
}

var eventTypeLabels = map[EventType]string{
	Meal:               "Meal",
	CampusActivity:     "Campus Activity",
	OffCampusActivity:  "Off Campus Activity",
	SchoolActivity:     "School Activity",
	MedicalAppointment: "Medical Appointment",
	Job:                "Job",
}

// String returns the stored name of the type, e.g. "CampusActivity".
func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Label returns the human-readable label, e.g. "Campus Activity".
func (t EventType) Label() string {
	if s, ok := eventTypeLabels[t]; ok {
		return s
	}
	return "Unknown"
}

// ParseEventType accepts either the stored name or the display label.
func ParseEventType(s string) (EventType, error) {
	for t, name := range eventTypeNames {
		if s == name || s == eventTypeLabels[t] {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

func (t EventType) MarshalText() ([]byte, error) {
	if _, ok := eventTypeNames[t]; !ok {
		return nil, fmt.Errorf("invalid event type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	v, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Category says whether attendance is required.
type Category int

const (
	Mandatory Category = iota
	Optional
	HouseOnly
)

var categoryNames = map[Category]string{
	Mandatory: "Mandatory",
	Optional:  "Optional",
	HouseOnly: "House",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Label is the same as String for categories; the names are already readable.
func (c Category) Label() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "Unknown"
}

func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if s == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if _, ok := categoryNames[c]; !ok {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Role is a user's organisational role.
type Role int

const (
	Admin Role = iota
	CommunityManager
	HouseParent
	Staff
)

var roleNames = map[Role]string{
	Admin:            "Admin",
	CommunityManager: "CM",
	HouseParent:      "HP",
	Staff:            "Staff",
}

var roleLabels = map[Role]string{
	Admin:            "Administrator",
	CommunityManager: "Community Manager",
	HouseParent:      "House Parent",
	Staff:            "Staff",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Label() string {
	if s, ok := roleLabels[r]; ok {
		return s
	}
	return "Unknown"
}

func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if s == name || s == roleLabels[r] {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
