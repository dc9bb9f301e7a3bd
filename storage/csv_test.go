package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal-analytics/models"
)

const sampleCSV = `id,address,neighborhood,property_type,value,square_feet,year_built,bedrooms,bathrooms,latitude,longitude,value_history,notes
p1,1 Elm St,Oak Hill,single-family,"$525,000",2100,1998,3,2.5,32.75,-97.33,2019:410000;2020:425000,corner lot
,2 Elm St,Oak Hill,condo,n/a,abc,,2,,,,,
p3,3 Elm St,Riverside,land,,,,,,,,garbage;2021:99000,
`

func TestReadPropertiesCSV(t *testing.T) {
	props, err := ReadPropertiesCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, props, 3)

	p := props[0]
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Oak Hill", p.Neighborhood)
	assert.Equal(t, "$525,000", p.Value)
	v, ok := p.NumericValue()
	require.True(t, ok)
	assert.Equal(t, 525000.0, v)
	require.NotNil(t, p.SquareFeet)
	assert.Equal(t, 2100.0, *p.SquareFeet)
	require.NotNil(t, p.YearBuilt)
	assert.Equal(t, 1998, *p.YearBuilt)
	assert.Equal(t, 2.5, *p.Bathrooms)
	assert.True(t, p.HasCoordinates())
	assert.Equal(t, models.ValueHistory{"2019": "410000", "2020": "425000"}, p.ValueHistory)

	missing := props[1]
	assert.Equal(t, "row-2", missing.ID)
	_, ok = missing.NumericValue()
	assert.False(t, ok)
	assert.Nil(t, missing.SquareFeet)
	assert.Nil(t, missing.YearBuilt)
	require.NotNil(t, missing.Bedrooms)
	assert.Equal(t, 2, *missing.Bedrooms)
	assert.Nil(t, missing.ValueHistory)

	assert.Equal(t, models.ValueHistory{"2021": "99000"}, props[2].ValueHistory)
}

func TestReadPropertiesCSVEmpty(t *testing.T) {
	props, err := ReadPropertiesCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)

	props, err = ReadPropertiesCSV(strings.NewReader("id,value\n"))
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestReadPropertiesCSVRejectsNonFinite(t *testing.T) {
	in := "id,value,square_feet,bathrooms,latitude,longitude\np1,500000,NaN,+Inf,-inf,-97.3\n"

	props, err := ReadPropertiesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, props, 1)

	p := props[0]
	assert.Nil(t, p.SquareFeet)
	assert.Nil(t, p.Bathrooms)
	assert.Nil(t, p.Latitude)
	require.NotNil(t, p.Longitude)
	_, ok := p.PricePerSquareFoot()
	assert.False(t, ok)
}

func TestCSVPropertyReaderMissingFile(t *testing.T) {
	_, err := NewCSVPropertyReader(filepath.Join(t.TempDir(), "nope.csv")).ReadAll()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPropertyCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "properties.csv")
	in := []models.Property{
		{
			ID:           "p1",
			Address:      "1 Elm St, Unit 2",
			Neighborhood: "Oak Hill",
			PropertyType: "condo",
			Value:        "525000",
			SquareFeet:   models.Float(1250.5),
			YearBuilt:    models.Int(2005),
			Bedrooms:     models.Int(2),
			Latitude:     models.Float(32.75),
			Longitude:    models.Float(-97.33),
			ValueHistory: models.ValueHistory{"2020": "500000", "2019": "480000"},
			SourceURL:    "https://homes.example.com/p1",
		},
		{ID: "p2"},
	}

	w, err := NewPropertyCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(in))
	require.NoError(t, w.Close())

	out, err := NewCSVPropertyReader(path).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCSVWriterWritesRawListings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	scraped := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.WriteRaw([]*models.RawListing{
		{Title: "Bungalow", RawPrice: "$525,000", URL: "https://homes.example.com/1", Source: "jsonld", ScrapedAt: scraped},
		{Title: "Condo", RawPrice: "$1.2M", URL: "https://homes.example.com/2", Source: "dom", ScrapedAt: scraped},
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, rawHeader, records[0])
	assert.Equal(t, "Bungalow", records[1][1])
	assert.Equal(t, "$525,000", records[1][5])
	assert.Equal(t, "2024-03-01T12:00:00Z", records[2][len(rawHeader)-1])
}

func TestValueHistoryEncoding(t *testing.T) {
	h := models.ValueHistory{"2021": "430000", "2019": "410000"}
	assert.Equal(t, "2019:410000;2021:430000", EncodeValueHistory(h))
	assert.Equal(t, h, DecodeValueHistory(EncodeValueHistory(h)))

	assert.Equal(t, "", EncodeValueHistory(nil))
	assert.Nil(t, DecodeValueHistory(""))
	assert.Nil(t, DecodeValueHistory("nonsense; ;:5"))
}
