package model

import "fmt"

const MinutesPerDay = 24 * 60

// Flight is a recurring scheduled service. Clock times are local to the
// respective airports; DurationMinutes is the UTC-corrected block time.
type Flight struct {
	ID              int
	Origin          *Airport
	Destination     *Airport
	Capacity        int
	DepartureLocal  int // minute of day
	ArrivalLocal    int // minute of day
	DurationMinutes int
	Frequency       int // departures per day
}

// NewFlight derives the transport duration from the local clock times and
// the GMT offsets of both airports. Overnight services wrap into the next day.
func NewFlight(id int, origin, dest *Airport, depLocal, arrLocal, capacity int) *Flight {
	dep := depLocal - origin.GMTOffset*60
	arr := arrLocal - dest.GMTOffset*60
	dur := ((arr-dep)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
	if dur == 0 {
		dur = MinutesPerDay
	}
	return &Flight{
		ID:              id,
		Origin:          origin,
		Destination:     dest,
		Capacity:        capacity,
		DepartureLocal:  depLocal,
		ArrivalLocal:    arrLocal,
		DurationMinutes: dur,
		Frequency:       1,
	}
}

// DepartureUTC is the departure minute of day expressed in UTC.
func (f *Flight) DepartureUTC() int {
	d := f.DepartureLocal - f.Origin.GMTOffset*60
	return ((d % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}

func (f *Flight) String() string {
	return fmt.Sprintf("%s-%s@%s", f.Origin, f.Destination, clock(f.DepartureLocal))
}

// FlightInstance is a flight bound to one day of the planning horizon.
// Departure and Arrival are absolute UTC minutes from the horizon start.
// Used capacity is tracked by the solver, not here, so instances can be
// shared by concurrent runs.
type FlightInstance struct {
	Index     int
	Flight    *Flight
	Day       int
	Departure int
	Arrival   int
}

// ID renders the stable identifier {templateId}-DAY-{n}-{HHmm}, where HHmm
// is the instance's own UTC departure clock.
func (fi *FlightInstance) ID() string {
	return fmt.Sprintf("%d-DAY-%d-%s", fi.Flight.ID, fi.Day, clockCompact(fi.Departure%MinutesPerDay))
}

func (fi *FlightInstance) Origin() *Airport      { return fi.Flight.Origin }
func (fi *FlightInstance) Destination() *Airport { return fi.Flight.Destination }
func (fi *FlightInstance) Capacity() int         { return fi.Flight.Capacity }

func clock(m int) string {
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}

func clockCompact(m int) string {
	return fmt.Sprintf("%02d%02d", (m/60)%24, m%60)
}
