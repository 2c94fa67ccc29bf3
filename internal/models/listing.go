package models

import (
	"time"
)

// Listing lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Location represents a catalog location (e.g. "Westlands")
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Neighbourhood represents a named area inside a location
type Neighbourhood struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LocationID string    `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Amenity represents a catalog amenity (e.g. "Pool"), unique by name
type Amenity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing represents a property listing. Optional numeric attributes are
// pointers so an absent or unparsable value persists as NULL.
type Listing struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           *float64  `json:"price"`
	PropertyType    string    `json:"property_type"`
	ListingType     string    `json:"listing_type"`
	LocationID      string    `json:"location_id"`
	NeighbourhoodID string    `json:"neighbourhood_id,omitempty"`
	Size            *float64  `json:"size"`
	LandSize        *float64  `json:"land_size"`
	Bedrooms        *int      `json:"bedrooms"`
	Bathrooms       *int      `json:"bathrooms"`
	YearBuilt       *int      `json:"year_built"`
	Floor           *int      `json:"floor"`
	ApartmentName   string    `json:"apartment_name,omitempty"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListingImage represents one stored image attached to a listing
type ListingImage struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	ImagePath  string    `json:"image_path"`
	IsFeatured bool      `json:"is_featured"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListingDetails is a listing joined with its catalog names and images,
// as served to the admin console
type ListingDetails struct {
	Listing
	LocationName      string          `json:"location_name"`
	NeighbourhoodName string          `json:"neighbourhood_name,omitempty"`
	Amenities         []string        `json:"amenities"`
	Images            []*ListingImage `json:"images"`
}

// ListingImportedEvent is published to RabbitMQ after a row commits fully
type ListingImportedEvent struct {
	ListingID   string    `json:"listing_id"`
	Title       string    `json:"title"`
	ListingType string    `json:"listing_type"`
	LocationID  string    `json:"location_id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}
