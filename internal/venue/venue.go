package venue

import (
	"fmt"
	"math"
	"net/url"
)

const earthRadiusMeters = 6371008.8

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Venue is a normalized search result. Identity is the ID alone.
type Venue struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       *string    `json:"category,omitempty"`
	ImageURL       *string    `json:"imageUrl,omitempty"`
	Coordinates    Coordinate `json:"coordinates"`
	DistanceMeters float64    `json:"distance"`
	DisplayPhone   *string    `json:"phoneNumber,omitempty"`
	RawPhone       *string    `json:"rawPhoneNumber,omitempty"`
	Rating         *float64   `json:"rating,omitempty"`
	IsOpenNow      bool       `json:"isOpenNow"`
}

// Same reports whether v and o describe the same venue.
func (v Venue) Same(o Venue) bool {
	return v.ID == o.ID
}

// HasImage reports whether an image URL is present.
func (v Venue) HasImage() bool {
	return v.ImageURL != nil && *v.ImageURL != ""
}

// RatingOr returns the rating, or fallback when absent.
func (v Venue) RatingOr(fallback float64) float64 {
	if v.Rating == nil {
		return fallback
	}
	return *v.Rating
}

// CategoryLabel returns the category or an empty string.
func (v Venue) CategoryLabel() string {
	if v.Category == nil {
		return ""
	}
	return *v.Category
}

// MapsURL builds a driving-directions link for the venue.
func (v Venue) MapsURL() string {
	q := url.Values{}
	q.Set("daddr", v.Coordinates.String())
	q.Set("q", v.Name)
	q.Set("dirflg", "d")
	return "https://maps.apple.com/?" + q.Encode()
}

// DistanceLabel formats the distance for display.
func (v Venue) DistanceLabel() string {
	if v.DistanceMeters < 1000 {
		return fmt.Sprintf("%.0f m", v.DistanceMeters)
	}
	return fmt.Sprintf("%.1f km", v.DistanceMeters/1000)
}
