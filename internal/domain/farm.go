package domain

import (
	"time"

	"github.com/mmcloughlin/geohash"
)

// FarmGeohashPrecision is the number of geohash characters stored per farm
// (cells of roughly 150 m).
const FarmGeohashPrecision = 7

// Farm is a producer selling on the marketplace.
type Farm struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Geohash     string    `json:"geohash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetLocation stores the coordinates and derives the geohash. Passing nil
// for either coordinate clears the location.
func (f *Farm) SetLocation(lat, lng *float64) {
	if lat == nil || lng == nil {
		f.Latitude, f.Longitude, f.Geohash = nil, nil, ""
		return
	}
	la, ln := *lat, *lng
	f.Latitude, f.Longitude = &la, &ln
	f.Geohash = geohash.EncodeWithPrecision(la, ln, FarmGeohashPrecision)
}

// IsOwnedBy reports whether userID owns the farm.
func (f *Farm) IsOwnedBy(userID int64) bool {
	return f.OwnerID == userID
}

// cellWidthKm is the approximate cell width per geohash length.
var cellWidthKm = []struct {
	chars uint
	km    float64
}{
	{6, 1.2},
	{5, 4.9},
	{4, 39},
	{3, 156},
	{2, 1250},
}

// NearbyCells returns the geohash cell containing (lat, lng) together with
// its eight neighbours, at the finest precision whose cells are at least
// radiusKm wide. Matching farm geohashes against these prefixes is a coarse
// proximity filter.
func NearbyCells(lat, lng, radiusKm float64) []string {
	chars := uint(1)
	for _, c := range cellWidthKm {
		if c.km >= radiusKm {
			chars = c.chars
			break
		}
	}

	center := geohash.EncodeWithPrecision(lat, lng, chars)
	return append([]string{center}, geohash.Neighbors(center)...)
}
