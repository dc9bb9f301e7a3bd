package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"appraisal-analytics/models"
)

const (
	propertyColumns = 16
	historyColumns  = 3
	batchSize       = 50
)

// PostgresStore persists properties and their value histories to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return newPostgresStore(db)
}

func newPostgresStore(db *sql.DB) (*PostgresStore, error) {
	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id             TEXT PRIMARY KEY,
			address        TEXT NOT NULL DEFAULT '',
			neighborhood   TEXT NOT NULL DEFAULT '',
			property_type  TEXT NOT NULL DEFAULT '',
			value          NUMERIC(14,2),
			sale_price     NUMERIC(14,2),
			land_value     NUMERIC(14,2),
			tax_assessment NUMERIC(14,2),
			square_feet    DOUBLE PRECISION,
			year_built     INTEGER,
			bedrooms       INTEGER,
			bathrooms      DOUBLE PRECISION,
			lot_size       DOUBLE PRECISION,
			latitude       DOUBLE PRECISION,
			longitude      DOUBLE PRECISION,
			source_url     TEXT NOT NULL DEFAULT '',
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS property_value_history (
			property_id TEXT    NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			year        INTEGER NOT NULL,
			value       NUMERIC(14,2) NOT NULL,
			PRIMARY KEY (property_id, year)
		);

		CREATE INDEX IF NOT EXISTS idx_properties_neighborhood ON properties(neighborhood);
		CREATE INDEX IF NOT EXISTS idx_properties_type         ON properties(property_type);
		CREATE INDEX IF NOT EXISTS idx_properties_value        ON properties(value);
	`)
	return err
}

// Clear deletes all stored properties and, through the cascade, their
// histories.
func (ps *PostgresStore) Clear() error {
	_, err := ps.db.Exec("DELETE FROM properties")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write upserts properties in batches inside one transaction. Each written
// property's stored history is replaced by the one it carries. When an ID
// repeats, the last occurrence wins.
func (ps *PostgresStore) Write(properties []models.Property) (err error) {
	properties = lastByID(properties)
	if len(properties) == 0 {
		return nil
	}

	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := make([]string, 0, len(properties))
	for i := 0; i < len(properties); i += batchSize {
		end := min(i+batchSize, len(properties))
		if err = upsertBatch(tx, properties[i:end]); err != nil {
			return fmt.Errorf("postgres: upsert properties: %w", err)
		}
		for _, p := range properties[i:end] {
			ids = append(ids, p.ID)
		}
	}

	if _, err = tx.Exec(
		"DELETE FROM property_value_history WHERE property_id = ANY($1)", pq.Array(ids),
	); err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}

	var rows []historyRow
	for i := range properties {
		for _, e := range properties[i].ValueHistory.Entries() {
			rows = append(rows, historyRow{propertyID: properties[i].ID, year: e.Year, value: e.Value})
		}
	}
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		if err = insertHistoryBatch(tx, rows[i:end]); err != nil {
			return fmt.Errorf("postgres: insert history: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// lastByID collapses repeated IDs onto the position of their first
// occurrence, carrying the data of the last. A batch that names the same ID
// twice would otherwise fail ON CONFLICT DO UPDATE.
func lastByID(properties []models.Property) []models.Property {
	index := make(map[string]int, len(properties))
	out := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

type historyRow struct {
	propertyID string
	year       int
	value      float64
}

func upsertBatch(tx *sql.Tx, batch []models.Property) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*propertyColumns)

	for idx := range batch {
		p := &batch[idx]
		valueStrings = append(valueStrings, placeholders(idx*propertyColumns, propertyColumns))
		valueArgs = append(valueArgs,
			p.ID, p.Address, p.Neighborhood, p.PropertyType,
			amountArg(p.Value), amountArg(p.SalePrice), amountArg(p.LandValue), amountArg(p.TaxAssessment),
			p.SquareFeet, p.YearBuilt, p.Bedrooms, p.Bathrooms, p.LotSize,
			p.Latitude, p.Longitude, p.SourceURL)
	}

	query := fmt.Sprintf(`
		INSERT INTO properties (id, address, neighborhood, property_type,
			value, sale_price, land_value, tax_assessment,
			square_feet, year_built, bedrooms, bathrooms, lot_size,
			latitude, longitude, source_url)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			address = EXCLUDED.address,
			neighborhood = EXCLUDED.neighborhood,
			property_type = EXCLUDED.property_type,
			value = EXCLUDED.value,
			sale_price = EXCLUDED.sale_price,
			land_value = EXCLUDED.land_value,
			tax_assessment = EXCLUDED.tax_assessment,
			square_feet = EXCLUDED.square_feet,
			year_built = EXCLUDED.year_built,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			lot_size = EXCLUDED.lot_size,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			source_url = EXCLUDED.source_url,
			updated_at = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

func insertHistoryBatch(tx *sql.Tx, batch []historyRow) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*historyColumns)

	for idx, r := range batch {
		valueStrings = append(valueStrings, placeholders(idx*historyColumns, historyColumns))
		valueArgs = append(valueArgs, r.propertyID, r.year, r.value)
	}

	query := fmt.Sprintf(`
		INSERT INTO property_value_history (property_id, year, value)
		VALUES %s
		ON CONFLICT (property_id, year) DO UPDATE SET value = EXCLUDED.value
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// placeholders renders "($base+1,...,$base+n)".
func placeholders(base, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(base+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// amountArg stores unparseable amounts as NULL rather than failing the batch.
func amountArg(raw string) interface{} {
	if v, ok := models.ParseAmount(raw); ok {
		return v
	}
	return nil
}

// ReadAll retrieves every stored property with its value history.
func (ps *PostgresStore) ReadAll() ([]models.Property, error) {
	rows, err := ps.db.Query(`
		SELECT id, address, neighborhood, property_type,
			value, sale_price, land_value, tax_assessment,
			square_feet, year_built, bedrooms, bathrooms, lot_size,
			latitude, longitude, source_url
		FROM properties
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch properties: %w", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			p                                  models.Property
			value, salePrice, land, assessment sql.NullString
			sqft, baths, lot, lat, lon         sql.NullFloat64
			year, beds                         sql.NullInt64
		)
		if err := rows.Scan(
			&p.ID, &p.Address, &p.Neighborhood, &p.PropertyType,
			&value, &salePrice, &land, &assessment,
			&sqft, &year, &beds, &baths, &lot,
			&lat, &lon, &p.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan property: %w", err)
		}
		p.Value = amountText(value)
		p.SalePrice = amountText(salePrice)
		p.LandValue = amountText(land)
		p.TaxAssessment = amountText(assessment)
		p.SquareFeet = nullFloat(sqft)
		p.YearBuilt = nullInt(year)
		p.Bedrooms = nullInt(beds)
		p.Bathrooms = nullFloat(baths)
		p.LotSize = nullFloat(lot)
		p.Latitude = nullFloat(lat)
		p.Longitude = nullFloat(lon)

		index[p.ID] = len(properties)
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate properties: %w", err)
	}

	if err := ps.attachHistory(properties, index); err != nil {
		return nil, err
	}
	return properties, nil
}

func (ps *PostgresStore) attachHistory(properties []models.Property, index map[string]int) error {
	rows, err := ps.db.Query(`
		SELECT property_id, year, value
		FROM property_value_history
		ORDER BY property_id, year
	`)
	if err != nil {
		return fmt.Errorf("postgres: fetch history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			year  int
			value sql.NullString
		)
		if err := rows.Scan(&id, &year, &value); err != nil {
			return fmt.Errorf("postgres: scan history: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		if properties[i].ValueHistory == nil {
			properties[i].ValueHistory = make(models.ValueHistory)
		}
		properties[i].ValueHistory[strconv.Itoa(year)] = amountText(value)
	}
	return rows.Err()
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// amountText normalises a NUMERIC column ("525000.00") to the canonical
// decimal string ("525000").
func amountText(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	if v, ok := models.ParseAmount(s.String); ok {
		return models.FormatAmount(v)
	}
	return s.String
}

// nullFloat maps NULL and the non-finite values PostgreSQL can store to nil.
func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return nil
	}
	return models.Float(n.Float64)
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return models.Int(int(n.Int64))
}
