package listing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"appraisal-analytics/models"
)

const (
	sourceJSONLD = "jsonld"
	sourceDOM    = "dom"

	sqftPerSquareMetre = 10.7639
)

// pageData is what extractScript returns.
type pageData struct {
	JSONLD []string `json:"jsonld"`
	DOM    domData  `json:"dom"`
	Facts  []string `json:"facts"`
}

type domData struct {
	Title        string `json:"title"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Price        string `json:"price"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

// residenceTypes are the schema.org types that describe the home itself.
var residenceTypes = map[string]bool{
	"SingleFamilyResidence": true,
	"House":                 true,
	"Apartment":             true,
	"Residence":             true,
	"ApartmentComplex":      true,
	"Accommodation":         true,
	"Place":                 true,
}

// wrapperTypes describe a listing that points at the home through a nested
// node.
var wrapperTypes = map[string]bool{
	"RealEstateListing": true,
	"Product":           true,
	"Offer":             true,
}

// buildListing merges JSON-LD, DOM text and fact lines into one raw listing.
// JSON-LD wins; the DOM only fills fields it left empty.
func buildListing(url string, page pageData, scrapedAt time.Time) *models.RawListing {
	raw := &models.RawListing{URL: url, ScrapedAt: scrapedAt, Source: sourceDOM}

	if node, ok := findListingNode(page.JSONLD); ok {
		applyNode(raw, node)
		raw.Source = sourceJSONLD
	}

	fill(&raw.Title, page.DOM.Title)
	fill(&raw.Address, page.DOM.Address)
	fill(&raw.Neighborhood, page.DOM.Neighborhood)
	fill(&raw.RawPrice, page.DOM.Price)
	fill(&raw.Latitude, page.DOM.Latitude)
	fill(&raw.Longitude, page.DOM.Longitude)

	for _, f := range page.Facts {
		lf := strings.ToLower(f)
		switch {
		case strings.Contains(lf, "lot"):
			fill(&raw.RawLotSize, f)
		case strings.Contains(lf, "bed"):
			fill(&raw.RawBeds, f)
		case strings.Contains(lf, "bath"):
			fill(&raw.RawBaths, f)
		case strings.Contains(lf, "sqft"), strings.Contains(lf, "sq ft"), strings.Contains(lf, "square feet"):
			fill(&raw.RawArea, f)
		case strings.Contains(lf, "built"):
			fill(&raw.RawYearBuilt, f)
		}
	}
	return raw
}

func fill(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = strings.TrimSpace(v)
	}
}

// findListingNode returns the most specific listing node across all JSON-LD
// blocks: a residence type first, then any node carrying an address.
// Malformed blocks are ignored.
func findListingNode(blocks []string) (map[string]any, bool) {
	var nodes []map[string]any
	for _, b := range blocks {
		var v any
		if err := json.Unmarshal([]byte(b), &v); err != nil {
			continue
		}
		nodes = append(nodes, flatten(v)...)
	}

	var withAddress map[string]any
	for _, n := range nodes {
		for _, t := range types(n) {
			if residenceTypes[t] {
				return mergeWrapper(n, nodes), true
			}
		}
		if withAddress == nil && n["address"] != nil {
			withAddress = n
		}
	}
	for _, n := range nodes {
		for _, t := range types(n) {
			if wrapperTypes[t] {
				return n, true
			}
		}
	}
	if withAddress != nil {
		return withAddress, true
	}
	return nil, false
}

// flatten expands @graph containers and top-level arrays, and pulls nested
// residence nodes out of wrapper fields.
func flatten(v any) []map[string]any {
	switch x := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range x {
			out = append(out, flatten(item)...)
		}
		return out
	case map[string]any:
		if g, ok := x["@graph"]; ok {
			return flatten(g)
		}
		out := []map[string]any{x}
		for _, key := range []string{"mainEntity", "about", "itemOffered"} {
			if child, ok := x[key].(map[string]any); ok {
				child = withParent(child, x)
				out = append(out, child)
			}
		}
		return out
	}
	return nil
}

// withParent copies offer and identity fields from a wrapper into a nested
// residence node that lacks them.
func withParent(child, parent map[string]any) map[string]any {
	merged := make(map[string]any, len(child)+3)
	for k, v := range child {
		merged[k] = v
	}
	for _, key := range []string{"offers", "identifier", "productID", "@id", "name", "url"} {
		if _, ok := merged[key]; !ok && parent[key] != nil {
			merged[key] = parent[key]
		}
	}
	return merged
}

// mergeWrapper fills a residence node's missing offer from any wrapper node.
func mergeWrapper(n map[string]any, nodes []map[string]any) map[string]any {
	if n["offers"] != nil {
		return n
	}
	for _, other := range nodes {
		for _, t := range types(other) {
			if wrapperTypes[t] && other["offers"] != nil {
				return withParent(n, other)
			}
		}
	}
	return n
}

func types(n map[string]any) []string {
	switch t := n["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func applyNode(raw *models.RawListing, n map[string]any) {
	raw.ExternalID = firstText(n, "identifier", "productID", "@id")
	raw.Title = text(n["name"])

	for _, t := range types(n) {
		if residenceTypes[t] && t != "Place" && t != "Accommodation" {
			raw.PropertyType = t
			break
		}
	}
	if raw.PropertyType == "" {
		raw.PropertyType = text(n["additionalType"])
	}

	switch addr := n["address"].(type) {
	case string:
		raw.Address = addr
	case map[string]any:
		raw.Address = text(addr["streetAddress"])
		raw.Neighborhood = text(addr["addressLocality"])
	}
	if place, ok := n["containedInPlace"].(map[string]any); ok {
		if name := text(place["name"]); name != "" {
			raw.Neighborhood = name
		}
	}

	if geo, ok := n["geo"].(map[string]any); ok {
		raw.Latitude = text(geo["latitude"])
		raw.Longitude = text(geo["longitude"])
	}

	raw.RawPrice = offerPrice(n["offers"])
	raw.RawBeds = firstText(n, "numberOfBedrooms", "numberOfRooms")
	raw.RawBaths = firstText(n, "numberOfBathroomsTotal", "numberOfFullBathrooms")
	raw.RawArea = area(n["floorSize"])
	raw.RawLotSize = area(n["lotSize"])
	raw.RawYearBuilt = text(n["yearBuilt"])
}

func offerPrice(v any) string {
	switch o := v.(type) {
	case []any:
		for _, item := range o {
			if p := offerPrice(item); p != "" {
				return p
			}
		}
	case map[string]any:
		if p := text(o["price"]); p != "" {
			return p
		}
		if ps, ok := o["priceSpecification"].(map[string]any); ok {
			return text(ps["price"])
		}
	}
	return ""
}

// area renders a QuantitativeValue as text the cleaner understands. Square
// metres are converted to square feet and acres keep their unit.
func area(v any) string {
	q, ok := v.(map[string]any)
	if !ok {
		return text(v)
	}
	value := text(q["value"])
	if value == "" {
		return ""
	}
	unit := strings.ToUpper(firstText(q, "unitCode", "unitText"))
	switch {
	case unit == "MTK" || strings.HasPrefix(unit, "SQM") || unit == "M2":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatFloat(f*sqftPerSquareMetre, 'f', 0, 64) + " sqft"
		}
	case unit == "ACR" || strings.HasPrefix(unit, "ACRE"):
		return value + " acres"
	}
	return value
}

func firstText(n map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(n[k]); s != "" {
			return s
		}
	}
	return ""
}

// text renders a JSON-LD scalar. Numbers keep their shortest form; a
// PropertyValue-style object yields its value.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		return text(x["value"])
	}
	return ""
}
