package textfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"morapack/internal/model"
)

var (
	ErrFieldCount  = errors.New("unexpected field count")
	ErrUnknownIATA = errors.New("unknown airport")
)

// continentHeader recognises section lines such as "America del Sur." that
// precede the airports of a continent.
func continentHeader(line string) (model.Continent, bool) {
	if isRecord(line) || strings.ContainsAny(line, "*") {
		return model.UnknownContinent, false
	}
	c, err := model.ParseContinent(line)
	if err != nil {
		return model.UnknownContinent, false
	}
	return c, true
}

// isRecord reports whether the line starts with a numeric id.
func isRecord(line string) bool {
	return line != "" && unicode.IsDigit(rune(line[0]))
}

// parseAirport reads
//
//	01   SKBO   Bogota   Colombia   bogo   -5   430   Latitude: 04° 42' 05" N   Longitude:  74° 08' 49" W
//
// City names may contain spaces; the country is the last word before the
// short code. Coordinates are optional.
func parseAirport(line string, continent model.Continent) (*model.Airport, error) {
	head, coords, _ := strings.Cut(line, "Latitude:")
	f := strings.Fields(head)
	if len(f) < 7 {
		return nil, fmt.Errorf("%w: airport has %d fields", ErrFieldCount, len(f))
	}
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return nil, fmt.Errorf("airport id %q: %w", f[0], err)
	}
	capacity, err := strconv.Atoi(f[len(f)-1])
	if err != nil {
		return nil, fmt.Errorf("airport capacity %q: %w", f[len(f)-1], err)
	}
	gmt, err := strconv.Atoi(f[len(f)-2])
	if err != nil {
		return nil, fmt.Errorf("airport gmt %q: %w", f[len(f)-2], err)
	}
	names := f[2 : len(f)-3]
	a := &model.Airport{
		ID:        id,
		IATA:      strings.ToUpper(f[1]),
		GMTOffset: gmt,
		Warehouse: model.Warehouse{Capacity: capacity},
		City: &model.City{
			ID:        id,
			Name:      strings.Join(names[:len(names)-1], " "),
			Country:   names[len(names)-1],
			Code:      f[len(f)-3],
			Continent: continent,
		},
	}
	if lat, lng, ok := parseCoordinates(coords); ok {
		a.Lat, a.Lng = lat, lng
	}
	return a, nil
}

// parseCoordinates reads `04° 42' 05" N   Longitude:  74° 08' 49" W`.
func parseCoordinates(s string) (float64, float64, bool) {
	latPart, lngPart, ok := strings.Cut(s, "Longitude:")
	if !ok {
		return 0, 0, false
	}
	lat, ok1 := parseDMS(latPart)
	lng, ok2 := parseDMS(lngPart)
	return lat, lng, ok1 && ok2
}

func parseDMS(s string) (float64, bool) {
	f := strings.Fields(s)
	if len(f) < 4 {
		return 0, false
	}
	var parts [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimRight(f[i], "°'\"′″"), 64)
		if err != nil {
			return 0, false
		}
		parts[i] = v
	}
	deg := parts[0] + parts[1]/60 + parts[2]/3600
	switch strings.ToUpper(f[3]) {
	case "S", "W", "O":
		deg = -deg
	}
	return deg, true
}

// parseFlight reads ORIG-DEST-HH:MM-HH:MM-CAP; clocks may omit the colon.
func parseFlight(line string, id int, airports map[string]*model.Airport) (*model.Flight, error) {
	f := strings.Split(line, "-")
	if len(f) != 5 {
		return nil, fmt.Errorf("%w: flight has %d fields", ErrFieldCount, len(f))
	}
	from, ok := airports[strings.ToUpper(f[0])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIATA, f[0])
	}
	to, ok := airports[strings.ToUpper(f[1])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIATA, f[1])
	}
	if from == to {
		return nil, errors.New("flight origin equals destination")
	}
	dep, err := parseClock(f[2])
	if err != nil {
		return nil, err
	}
	arr, err := parseClock(f[3])
	if err != nil {
		return nil, err
	}
	capacity, err := strconv.Atoi(f[4])
	if err != nil || capacity <= 0 {
		return nil, fmt.Errorf("flight capacity %q invalid", f[4])
	}
	return model.NewFlight(id, from, to, dep, arr, capacity), nil
}

// parseClock turns "HH:MM" or "HHMM" into a minute of day.
func parseClock(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(s) != 4 {
		return 0, fmt.Errorf("clock %q invalid", s)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	h, m := v/100, v%100
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

// parseOrder reads id-yyyymmdd-hh-mm-DEST-qty-customer. The timestamp is the
// origin airport's local time.
func parseOrder(line string, id, firstProduct int, origin *model.Airport, airports map[string]*model.Airport) (*model.Order, error) {
	f := strings.Split(line, "-")
	if len(f) != 7 {
		return nil, fmt.Errorf("%w: order has %d fields", ErrFieldCount, len(f))
	}
	day, err := time.Parse("20060102", f[1])
	if err != nil {
		return nil, fmt.Errorf("order date %q: %w", f[1], err)
	}
	hh, err1 := strconv.Atoi(f[2])
	mm, err2 := strconv.Atoi(f[3])
	if err1 != nil || err2 != nil || hh > 23 || mm > 59 || hh < 0 || mm < 0 {
		return nil, fmt.Errorf("order time %s:%s invalid", f[2], f[3])
	}
	dest, ok := airports[strings.ToUpper(f[4])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIATA, f[4])
	}
	qty, err := strconv.Atoi(f[5])
	if err != nil || qty <= 0 {
		return nil, fmt.Errorf("order quantity %q invalid", f[5])
	}
	zone := time.FixedZone(origin.IATA, origin.GMTOffset*3600)
	created := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, zone).UTC()
	o := model.NewOrder(id, origin, dest, created, time.Time{}, qty, firstProduct)
	o.Name = origin.IATA + "-" + f[0]
	o.CustomerID = f[6]
	return o, nil
}
