package models

import (
	"workouttribe/apperr"
	"workouttribe/geo"
)

// Location is stored as a GeoJSON point so Mongo can build a 2dsphere index on it.
// Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	City        string    `json:"city,omitempty" bson:"city,omitempty"`
}

func NewLocation(p geo.Point, address, city string) Location {
	return Location{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}, Address: address, City: city}
}

// Point returns the coordinates. Call Validate first; a malformed location yields the zero point.
func (l Location) Point() geo.Point {
	if len(l.Coordinates) != 2 {
		return geo.Point{}
	}
	return geo.Point{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}
}

func (l Location) Validate() error {
	if l.Type != "" && l.Type != "Point" {
		return apperr.Invalid("location.type", "must be Point")
	}
	if len(l.Coordinates) != 2 {
		return apperr.Invalid("location.coordinates", "must be [longitude, latitude]")
	}
	return l.Point().Validate()
}

func (l *Location) normalize() {
	l.Type = "Point"
}

// LocationPatch carries optional location changes for an event update.
type LocationPatch struct {
	Coordinates []float64 `json:"coordinates"`
	Address     *string   `json:"address"`
	City        *string   `json:"city"`
}
