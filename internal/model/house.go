package model

import (
	"fmt"
	"time"
)

// House is an organisational unit events can be scoped to. Houses are
// reference data; nothing in this module changes occupancy.
type House struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	HouseParent      *string   `json:"house_parent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (h House) DisplayName() string {
	return h.ID + " - " + h.Name
}

func (h House) IsAtCapacity() bool {
	return h.CurrentOccupancy >= h.Capacity
}

func (h House) AvailableSpaces() int {
	return max(0, h.Capacity-h.CurrentOccupancy)
}

func (h House) OccupancyPercentage() float64 {
	if h.Capacity <= 0 {
		return 0
	}
	return float64(h.CurrentOccupancy) / float64(h.Capacity) * 100
}

func (h House) OccupancyDisplay() string {
	return fmt.Sprintf("%d/%d", h.CurrentOccupancy, h.Capacity)
}

// defaultHouses is the fixed set of houses, in display order.
var defaultHouses = []House{
	{ID: "AV", Name: "Ashford Village", Capacity: 10},
	{ID: "SP", Name: "Spring Place", Capacity: 10},
	{ID: "NL", Name: "North Lodge", Capacity: 10},
	{ID: "LC", Name: "Liberty Court", Capacity: 10},
	{ID: "WH", Name: "Westwood House", Capacity: 10},
	{ID: "HH", Name: "Heritage House", Capacity: 10},
	{ID: "BP", Name: "Brookside Place", Capacity: 10},
}

// Houses returns a copy of the reference houses.
func Houses() []House {
	out := make([]House, len(defaultHouses))
	copy(out, defaultHouses)
	return out
}

// LookupHouse returns the reference house with the given id.
func LookupHouse(id string) (House, bool) {
	for _, h := range defaultHouses {
		if h.ID == id {
			return h, true
		}
	}
	return House{}, false
}

// HouseName returns the house's name or "Unknown House".
func HouseName(id string) string {
	if h, ok := LookupHouse(id); ok {
		return h.Name
	}
	return "Unknown House"
}

func HouseIDs() []string {
	ids := make([]string, len(defaultHouses))
	for i, h := range defaultHouses {
		ids[i] = h.ID
	}
	return ids
}
