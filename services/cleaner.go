package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

var (
	// numberRegexp captures the first number, with thousands separators
	numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// suffixRegexp captures shorthand prices such as "$1.2M" or "850k"
	suffixRegexp = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([mk])\b`)
	// acresRegexp detects lot sizes given in acres
	acresRegexp = regexp.MustCompile(`(?i)\bac(?:re)?s?\b`)
	// yearRegexp captures a plausible construction year
	yearRegexp = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
)

const sqftPerAcre = 43560.0

// Cleaner transforms RawListings into Property records.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts raw listings into properties. Listings without a URL are
// dropped, duplicate URLs are kept once, and listings without an external ID
// get a fresh UUID.
func (c *Cleaner) Clean(raw []*models.RawListing) []models.Property {
	seen := make(map[string]struct{})
	result := make([]models.Property, 0, len(raw))

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", r.Title)
			continue
		}

		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		id := strings.TrimSpace(r.ExternalID)
		if id == "" {
			id = uuid.NewString()
		}

		p := models.Property{
			ID:           id,
			Address:      normaliseText(firstNonEmpty(r.Address, r.Title)),
			Neighborhood: normaliseText(r.Neighborhood),
			PropertyType: normaliseType(r.PropertyType),
			Value:        c.parsePrice(r.RawPrice),
			SquareFeet:   parseFloatField(r.RawArea),
			LotSize:      c.parseLotSize(r.RawLotSize),
			Bathrooms:    parseFloatField(r.RawBaths),
			Latitude:     parseCoordinate(r.Latitude, 90),
			Longitude:    parseCoordinate(r.Longitude, 180),
			SourceURL:    url,
		}
		if beds := parseFloatField(r.RawBeds); beds != nil {
			p.Bedrooms = models.Int(int(*beds))
		}
		if year := parseYear(r.RawYearBuilt); year != nil {
			p.YearBuilt = year
		}

		result = append(result, p)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d properties (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parsePrice extracts an asking price as a decimal string, or "" when the
// text holds no price.
// Examples:
//
//	"$525,000"      → "525000"
//	"Price: $1.2M"  → "1200000"
//	"850k"          → "850000"
func (c *Cleaner) parsePrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if m := suffixRegexp.FindStringSubmatch(raw); len(m) == 3 {
		base, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			mult := 1000.0
			if strings.EqualFold(m[2], "m") {
				mult = 1000000
			}
			c.logger.Debug("[cleaner] Shorthand price %q → %.0f", raw, base*mult)
			return models.FormatAmount(base * mult)
		}
	}

	match := numberRegexp.FindString(raw)
	if match == "" {
		return ""
	}
	v, ok := models.ParseAmount(match)
	if !ok || v <= 0 {
		return ""
	}
	return models.FormatAmount(v)
}

// parseLotSize returns the lot size in square feet; acre values are converted.
func (c *Cleaner) parseLotSize(raw string) *float64 {
	v := parseFloatField(raw)
	if v == nil {
		return nil
	}
	if acresRegexp.MatchString(raw) {
		return models.Float(*v * sqftPerAcre)
	}
	return v
}

// parseFloatField pulls the first positive number out of text like
// "2,100 sqft" or "2.5 ba".
func parseFloatField(raw string) *float64 {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func parseYear(raw string) *int {
	m := yearRegexp.FindStringSubmatch(raw)
	if len(m) < 2 {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}

func parseCoordinate(raw string, limit float64) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return nil
	}
	return &v
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// normaliseType maps schema.org and free-text types onto short type codes.
func normaliseType(s string) string {
	t := strings.ToLower(normaliseText(s))
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "town"):
		return "townhouse"
	case strings.Contains(t, "single"), strings.Contains(t, "house"):
		return "single-family"
	case strings.Contains(t, "condo"), strings.Contains(t, "apartment"):
		return "condo"
	case strings.Contains(t, "multi"), strings.Contains(t, "duplex"):
		return "multi-family"
	case strings.Contains(t, "land"), strings.Contains(t, "lot"):
		return "land"
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
