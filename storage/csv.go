package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"appraisal-analytics/models"
)

// rawHeader is the column layout of the raw listings CSV.
var rawHeader = []string{
	"external_id", "title", "address", "neighborhood", "property_type",
	"raw_price", "raw_beds", "raw_baths", "raw_area", "raw_lot_size",
	"raw_year_built", "latitude", "longitude", "url", "source", "scraped_at",
}

// propertyHeader is the column layout of the properties CSV. Readers match
// columns by name, so files may order or omit them freely.
var propertyHeader = []string{
	"id", "address", "neighborhood", "property_type",
	"value", "sale_price", "land_value", "tax_assessment",
	"square_feet", "year_built", "bedrooms", "bathrooms", "lot_size",
	"latitude", "longitude", "value_history", "source_url",
}

// CSVWriter writes raw (uncleaned) listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, w, err := createCSV(path, rawHeader)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends raw listings to the CSV file.
func (c *CSVWriter) WriteRaw(listings []*models.RawListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		row := []string{
			l.ExternalID,
			l.Title,
			l.Address,
			l.Neighborhood,
			l.PropertyType,
			l.RawPrice,
			l.RawBeds,
			l.RawBaths,
			l.RawArea,
			l.RawLotSize,
			l.RawYearBuilt,
			l.Latitude,
			l.Longitude,
			l.URL,
			l.Source,
			l.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// PropertyCSVWriter writes cleaned properties in the layout CSVPropertyReader
// reads back.
type PropertyCSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewPropertyCSVWriter creates (or truncates) a properties CSV at path.
func NewPropertyCSVWriter(path string) (*PropertyCSVWriter, error) {
	f, w, err := createCSV(path, propertyHeader)
	if err != nil {
		return nil, err
	}
	return &PropertyCSVWriter{file: f, writer: w}, nil
}

// Write appends properties to the file.
func (c *PropertyCSVWriter) Write(properties []models.Property) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range properties {
		p := &properties[i]
		row := []string{
			p.ID,
			p.Address,
			p.Neighborhood,
			p.PropertyType,
			p.Value,
			p.SalePrice,
			p.LandValue,
			p.TaxAssessment,
			formatFloat(p.SquareFeet),
			formatInt(p.YearBuilt),
			formatInt(p.Bedrooms),
			formatFloat(p.Bathrooms),
			formatFloat(p.LotSize),
			formatFloat(p.Latitude),
			formatFloat(p.Longitude),
			EncodeValueHistory(p.ValueHistory),
			p.SourceURL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *PropertyCSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func createCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return f, w, nil
}

// CSVPropertyReader loads properties from a CSV file with a header row.
// Unknown columns are ignored and malformed numbers are treated as absent.
type CSVPropertyReader struct {
	path string
}

// NewCSVPropertyReader returns a reader for the file at path.
func NewCSVPropertyReader(path string) *CSVPropertyReader {
	return &CSVPropertyReader{path: path}
}

// ReadAll parses every row of the file.
func (r *CSVPropertyReader) ReadAll() ([]models.Property, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()
	return ReadPropertiesCSV(f)
}

// ReadPropertiesCSV parses properties from CSV data. A row without an id
// gets "row-N", N being its 1-based data row number.
func ReadPropertiesCSV(in io.Reader) ([]models.Property, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.Property{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	properties := make([]models.Property, 0)
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", n, err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		p := models.Property{
			ID:            get("id"),
			Address:       get("address"),
			Neighborhood:  get("neighborhood"),
			PropertyType:  get("property_type"),
			Value:         get("value"),
			SalePrice:     get("sale_price"),
			LandValue:     get("land_value"),
			TaxAssessment: get("tax_assessment"),
			SquareFeet:    parseFloat(get("square_feet")),
			YearBuilt:     parseInt(get("year_built")),
			Bedrooms:      parseInt(get("bedrooms")),
			Bathrooms:     parseFloat(get("bathrooms")),
			LotSize:       parseFloat(get("lot_size")),
			Latitude:      parseFloat(get("latitude")),
			Longitude:     parseFloat(get("longitude")),
			ValueHistory:  DecodeValueHistory(get("value_history")),
			SourceURL:     get("source_url"),
		}
		if p.ID == "" {
			p.ID = "row-" + strconv.Itoa(n)
		}
		properties = append(properties, p)
	}
	return properties, nil
}

// EncodeValueHistory renders a history as "2019:410000;2020:425000", years
// ascending.
func EncodeValueHistory(h models.ValueHistory) string {
	if len(h) == 0 {
		return ""
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+h[k])
	}
	return strings.Join(parts, ";")
}

// DecodeValueHistory parses the EncodeValueHistory form. Entries without a
// colon are skipped; values are kept as text and validated on use.
func DecodeValueHistory(s string) models.ValueHistory {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	h := make(models.ValueHistory)
	for _, part := range strings.Split(s, ";") {
		year, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		year = strings.TrimSpace(year)
		if year == "" {
			continue
		}
		h[year] = strings.TrimSpace(value)
	}
	if len(h) == 0 {
		return nil
	}
	return h
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
