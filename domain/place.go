package domain

import (
	"math"
	"time"
)

// Location is a GeoJSON point. Coordinates are stored as [longitude, latitude].
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewPoint(longitude, latitude float64) Location {
	return Location{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

type Place struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	Location     Location    `json:"location"`
	PlaceURL     string      `json:"placeUrl"`
	Category     Category    `json:"category"`
	SubCategory  SubCategory `json:"subCategory"`
	Description  string      `json:"description"`
	ImageURLs    []string    `json:"imageUrls"`
	ViewCount    int64       `json:"viewCount"`
	CommentCount int64       `json:"commentCount"`
	Password     string      `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// GeoQuery selects places within MaxDistance meters of a point.
type GeoQuery struct {
	Longitude   float64
	Latitude    float64
	MaxDistance float64
}

// PlaceQuery narrows a place listing. Zero fields are ignored.
type PlaceQuery struct {
	Category    Category
	SubCategory SubCategory
	Name        string
	Near        *GeoQuery
}

// EarthRadiusMeters is the sphere radius used by every distance query.
const EarthRadiusMeters = 6378100.0

// DistanceMeters is the great circle distance between two points.
func DistanceMeters(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}
