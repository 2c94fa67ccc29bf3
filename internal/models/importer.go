package models

import (
	"bytes"
	"encoding/json"
)

// FlexString accepts a JSON string or number. Spreadsheet exports are
// inconsistent about quoting numeric cells, so both forms must decode.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// ImportRow is one candidate listing as submitted in a bulk upload batch.
// Field names mirror the spreadsheet template headers. Only title,
// listingType and location are required; everything else is optional.
type ImportRow struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Price         FlexString `json:"price"`
	PropertyType  string     `json:"propertyType"`
	ListingType   string     `json:"listingType"`
	Location      string     `json:"location"`
	Neighbourhood string     `json:"neighbourhood"`
	Size          FlexString `json:"size"`
	LandSize      FlexString `json:"landSize"`
	Bedrooms      FlexString `json:"bedrooms"`
	Bathrooms     FlexString `json:"bathrooms"`
	YearBuilt     FlexString `json:"yearBuilt"`
	Floor         FlexString `json:"floor"`
	ApartmentName string     `json:"apartmentName"`
	Status        string     `json:"status"`
	Amenities     string     `json:"amenities"`
	FeaturedImage string     `json:"featuredImage"`
	GalleryImages string     `json:"galleryImages"`
}

// FailedRow records why one row of a batch was not imported.
// Row is 1-based, matching the spreadsheet the operator is looking at.
type FailedRow struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarises a completed batch. SuccessCount plus FailedCount
// always equals the number of submitted rows.
type ImportReport struct {
	SuccessCount int         `json:"successCount"`
	FailedCount  int         `json:"failedCount"`
	FailedRows   []FailedRow `json:"failedRows"`
}
