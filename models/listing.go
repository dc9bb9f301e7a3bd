package models

import "time"

// RawListing holds unprocessed listing data exactly as the loader found it.
// It is written to CSV before any cleaning or transformation.
type RawListing struct {
	ExternalID   string
	Title        string
	Address      string
	Neighborhood string
	PropertyType string
	RawPrice     string
	RawBeds      string
	RawBaths     string
	RawArea      string
	RawLotSize   string
	RawYearBuilt string
	Latitude     string
	Longitude    string
	URL          string
	ScrapedAt    time.Time
	Source       string
}

// MarketReport holds summary statistics over a property collection.
type MarketReport struct {
	TotalProperties          int
	PricedProperties         int
	AverageValue             float64
	MinValue                 float64
	MaxValue                 float64
	MedianPricePerSquareFoot float64
	MostExpensive            *Property
	TopByValue               []Property
	PropertiesByNeighborhood map[string]int
}
