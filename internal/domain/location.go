package domain

// Location is a geographic point with a free-text label.
type Location struct {
	Lat   float64
	Lng   float64
	Label string
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
