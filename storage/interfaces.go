package storage

import "appraisal-analytics/models"

// PropertyReader loads the property collection the analytics run over.
type PropertyReader interface {
	ReadAll() ([]models.Property, error)
}

// PropertyWriter is the interface any property storage backend must satisfy.
type PropertyWriter interface {
	Write(properties []models.Property) error
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
