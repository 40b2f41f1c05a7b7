package domain

import "math"

// Immutable geographic coordinates in decimal degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Valid reports whether the coordinates fall inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Round returns a copy rounded to the given number of decimal places.
// Five places is roughly one meter and is what cache keys use.
func (c Coordinates) Round(places int) Coordinates {
	p := math.Pow(10, float64(places))
	return Coordinates{
		Lon: math.Round(c.Lon*p) / p,
		Lat: math.Round(c.Lat*p) / p,
	}
}
