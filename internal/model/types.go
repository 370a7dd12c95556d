// Package model holds the reference data the planner routes packages over:
// cities, airports with their warehouses, scheduled flights and the orders
// (with their product units) waiting to be moved.
package model

import (
	"fmt"
	"strings"
)

// Continent groups cities for delivery promises and routing expectations.
type Continent int

const (
	UnknownContinent Continent = iota
	America
	Europe
	Asia
)

func (c Continent) String() string {
	switch c {
	case America:
		return "america"
	case Europe:
		return "europe"
	case Asia:
		return "asia"
	default:
		return "unknown"
	}
}

// ParseContinent accepts the section headers used by airport listings
// ("America del Sur.", "Europa", "Asia") as well as plain English names.
func ParseContinent(s string) (Continent, error) {
	v := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".")))
	switch {
	case strings.HasPrefix(v, "america"), strings.HasPrefix(v, "south america"), strings.HasPrefix(v, "sudamerica"):
		return America, nil
	case strings.HasPrefix(v, "europ"):
		return Europe, nil
	case strings.HasPrefix(v, "asia"):
		return Asia, nil
	}
	return UnknownContinent, fmt.Errorf("unknown continent %q", s)
}

type City struct {
	ID        int
	Name      string
	Country   string
	Code      string
	Continent Continent
}

// Warehouse is the storage attached to an airport. Capacity counts product
// units that may be physically present at the same minute.
type Warehouse struct {
	Capacity int
}

type Airport struct {
	ID int
	// Index is the dense 0..n-1 position assigned when the network is built.
	Index     int
	IATA      string
	City      *City
	Lat, Lng  float64
	GMTOffset int // hours
	Warehouse Warehouse
}

func (a *Airport) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.IATA
}

// SameContinent reports whether both airports sit on the same continent.
func SameContinent(a, b *Airport) bool {
	if a == nil || b == nil || a.City == nil || b.City == nil {
		return false
	}
	return a.City.Continent == b.City.Continent
}

// Continent is the continent of the airport's city, if known.
func (a *Airport) Continent() Continent {
	if a == nil || a.City == nil {
		return UnknownContinent
	}
	return a.City.Continent
}
