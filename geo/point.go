// Package geo implements great-circle distance and the user location index
// used for radius searches.
package geo

import (
	"cmp"
	"math"
	"slices"

	"workouttribe/apperr"
)

// EarthRadiusMeters is the mean Earth radius (IUGG).
const EarthRadiusMeters = 6371008.8

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lng float64 `json:"lng" bson:"lng"`
	Lat float64 `json:"lat" bson:"lat"`
}

// Validate rejects coordinates outside longitude [-180,180] / latitude [-90,90].
func (p Point) Validate() error {
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return apperr.Invalid("longitude", "must be within [-180, 180], got %v", p.Lng)
	}
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return apperr.Invalid("latitude", "must be within [-90, 90], got %v", p.Lat)
	}
	return nil
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(wrapLng(b.Lng - a.Lng))

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// wrapLng folds a longitude delta into (-180, 180] so 179 -> -179 is 2 degrees.
func wrapLng(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Hit is a single radius query result.
type Hit struct {
	UserID   string  `json:"userId"`
	Distance float64 `json:"distance"`
}

// sortHits orders hits nearest first, ties by user id.
func sortHits(hits []Hit) {
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}
