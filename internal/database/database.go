package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"marketscout/internal/models"
)

type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection with SQLite optimizations
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	database := &Database{db: db}

	// Initialize schema
	if err := database.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// initializeSchema creates tables
func (d *Database) initializeSchema() error {
	// Read schema file
	schemaPath := filepath.Join("internal", "database", "schema.sql")
	schemaFile, err := os.Open(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to open schema file: %w", err)
	}
	defer schemaFile.Close()

	schema, err := io.ReadAll(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	// Execute schema
	if _, err := d.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Evaluation methods

// SaveEvaluation upserts the evaluation for a listing URL. Re-evaluating
// a listing replaces the previous record, so there is at most one
// current evaluation per listing.
func (d *Database) SaveEvaluation(listing models.Listing, eval *models.Evaluation, info models.VehicleInfo) error {
	query := `
		INSERT OR REPLACE INTO evaluations (
			listing_url, title, price, description, location,
			evaluated, flip_score, weirdness_score, scam_likelihood, notes, method,
			vehicle_year, vehicle_make, vehicle_model, vehicle_mileage,
			evaluated_at
		)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`

	var year, makeName, model, mileage interface{}
	if info.IsVehicle {
		if info.Year > 0 {
			year = info.Year
		}
		if info.Make != "" {
			makeName = info.Make
		}
		if info.Model != "" {
			model = info.Model
		}
		if info.Mileage > 0 {
			mileage = fmt.Sprintf("%dk miles", (info.Mileage+500)/1000)
		}
	}

	_, err := d.db.Exec(query,
		listing.URL, listing.Title, listing.Price, listing.Description, listing.Location,
		eval.FlipScore, eval.WeirdnessScore, eval.ScamLikelihood, eval.Notes, eval.Method,
		year, makeName, model, mileage)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}

	return nil
}

// GetEvaluation retrieves the current evaluation for a listing URL.
// Returns (nil, nil) when the listing has not been evaluated.
func (d *Database) GetEvaluation(listingURL string) (*models.EvaluationRecord, error) {
	query := `
		SELECT listing_url, title, price, description, location,
		       flip_score, weirdness_score, scam_likelihood, notes, method,
		       vehicle_year, vehicle_make, vehicle_model, vehicle_mileage, evaluated_at
		FROM evaluations
		WHERE listing_url = ?
	`

	record, err := scanEvaluation(d.db.QueryRow(query, listingURL))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	return record, nil
}

// GetEvaluationByItemID retrieves an evaluation by the marketplace item
// ID embedded in its listing URL. Returns (nil, nil) when no evaluation
// matches.
func (d *Database) GetEvaluationByItemID(itemID string) (*models.EvaluationRecord, error) {
	query := `
		SELECT listing_url, title, price, description, location,
		       flip_score, weirdness_score, scam_likelihood, notes, method,
		       vehicle_year, vehicle_make, vehicle_model, vehicle_mileage, evaluated_at
		FROM evaluations
		WHERE listing_url LIKE ?
	`

	record, err := scanEvaluation(d.db.QueryRow(query, "%"+itemID+"%"))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation by item id: %w", err)
	}

	return record, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvaluation(row rowScanner) (*models.EvaluationRecord, error) {
	var record models.EvaluationRecord
	var title, price, description, location, notes, method sql.NullString
	var year sql.NullInt64
	var makeName, model, mileage sql.NullString

	err := row.Scan(&record.ListingURL, &title, &price, &description, &location,
		&record.FlipScore, &record.WeirdnessScore, &record.ScamLikelihood, &notes, &method,
		&year, &makeName, &model, &mileage, &record.EvaluatedAt)
	if err != nil {
		return nil, err
	}

	record.Title = title.String
	record.Price = price.String
	record.Description = description.String
	record.Location = location.String
	record.Notes = notes.String
	record.Method = method.String
	record.VehicleYear = int(year.Int64)
	record.VehicleMake = makeName.String
	record.VehicleModel = model.String
	record.VehicleMileage = mileage.String

	return &record, nil
}

// Inventory queries over the accumulated evaluations

// InventoryRow is one aggregated line of the inventory views
type InventoryRow struct {
	Year    int    `json:"year,omitempty"`
	Make    string `json:"make,omitempty"`
	Model   string `json:"model,omitempty"`
	Count   int    `json:"count"`
	MinYear int    `json:"min_year,omitempty"`
	MaxYear int    `json:"max_year,omitempty"`
}

// InventorySummary lists every distinct (year, make, model) with counts
func (d *Database) InventorySummary() ([]InventoryRow, error) {
	query := `
		SELECT vehicle_year, vehicle_make, vehicle_model, COUNT(*) as count
		FROM evaluations
		WHERE vehicle_year IS NOT NULL
		GROUP BY vehicle_year, vehicle_make, vehicle_model
		ORDER BY vehicle_make, vehicle_year DESC
	`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory summary: %w", err)
	}
	defer rows.Close()

	var summary []InventoryRow
	for rows.Next() {
		var row InventoryRow
		var makeName, model sql.NullString
		if err := rows.Scan(&row.Year, &makeName, &model, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		row.Make = makeName.String
		row.Model = model.String
		summary = append(summary, row)
	}

	return summary, rows.Err()
}

// InventoryMakes lists every make with counts and the year range seen
func (d *Database) InventoryMakes() ([]InventoryRow, error) {
	query := `
		SELECT vehicle_make, COUNT(*) as count,
		       MIN(vehicle_year) as min_year, MAX(vehicle_year) as max_year
		FROM evaluations
		WHERE vehicle_make IS NOT NULL
		GROUP BY vehicle_make
		ORDER BY vehicle_make
	`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query makes: %w", err)
	}
	defer rows.Close()

	var makes []InventoryRow
	for rows.Next() {
		var row InventoryRow
		var minYear, maxYear sql.NullInt64
		if err := rows.Scan(&row.Make, &row.Count, &minYear, &maxYear); err != nil {
			return nil, fmt.Errorf("failed to scan make row: %w", err)
		}
		row.MinYear = int(minYear.Int64)
		row.MaxYear = int(maxYear.Int64)
		makes = append(makes, row)
	}

	return makes, rows.Err()
}

// YearsForMake lists the distinct years evaluated for one make
func (d *Database) YearsForMake(makeName string) ([]InventoryRow, error) {
	query := `
		SELECT vehicle_year, COUNT(*) as count
		FROM evaluations
		WHERE vehicle_make = ? AND vehicle_year IS NOT NULL
		GROUP BY vehicle_year
		ORDER BY vehicle_year DESC
	`

	rows, err := d.db.Query(query, makeName)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}
	defer rows.Close()

	var years []InventoryRow
	for rows.Next() {
		var row InventoryRow
		if err := rows.Scan(&row.Year, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan year row: %w", err)
		}
		years = append(years, row)
	}

	return years, rows.Err()
}

// ModelsForMakeYear lists the distinct models evaluated for one make
// and year
func (d *Database) ModelsForMakeYear(makeName string, year int) ([]InventoryRow, error) {
	query := `
		SELECT vehicle_model, COUNT(*) as count
		FROM evaluations
		WHERE vehicle_make = ? AND vehicle_year = ?
		GROUP BY vehicle_model
		ORDER BY vehicle_model
	`

	rows, err := d.db.Query(query, makeName, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var result []InventoryRow
	for rows.Next() {
		var row InventoryRow
		var model sql.NullString
		if err := rows.Scan(&model, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		row.Model = model.String
		result = append(result, row)
	}

	return result, rows.Err()
}

// EvaluationsForVehicle lists all evaluations for one vehicle, newest
// first. The model matches by substring so trim variations group
// together.
func (d *Database) EvaluationsForVehicle(year int, makeName, model string) ([]models.EvaluationRecord, error) {
	query := `
		SELECT listing_url, title, price, description, location,
		       flip_score, weirdness_score, scam_likelihood, notes, method,
		       vehicle_year, vehicle_make, vehicle_model, vehicle_mileage, evaluated_at
		FROM evaluations
		WHERE vehicle_year = ? AND vehicle_make = ? AND vehicle_model LIKE ?
		ORDER BY evaluated_at DESC
	`

	rows, err := d.db.Query(query, year, makeName, "%"+model+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var records []models.EvaluationRecord
	for rows.Next() {
		record, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

// Comparable pricing cache

// GetComparables retrieves a cached comparable set by search key.
// Returns (nil, nil) on a miss. Entries never expire, the price book
// accumulates over time.
func (d *Database) GetComparables(searchKey string) (*models.ComparableSet, error) {
	query := `
		SELECT prices, listings, median_price, average_price, sample_count,
		       min_price, max_price, last_updated
		FROM comparable_pricing
		WHERE search_key = ?
	`

	var pricesJSON string
	var listingsJSON sql.NullString
	var set models.ComparableSet

	err := d.db.QueryRow(query, searchKey).Scan(&pricesJSON, &listingsJSON,
		&set.Median, &set.Average, &set.Count, &set.Min, &set.Max, &set.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comparables: %w", err)
	}

	if err := json.Unmarshal([]byte(pricesJSON), &set.Prices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prices: %w", err)
	}
	if listingsJSON.Valid && listingsJSON.String != "" {
		if err := json.Unmarshal([]byte(listingsJSON.String), &set.Listings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
		}
	}

	return &set, nil
}

// PutComparables upserts a comparable set under its search key
func (d *Database) PutComparables(searchKey string, year int, makeName, model string, set *models.ComparableSet) error {
	pricesJSON, err := json.Marshal(set.Prices)
	if err != nil {
		return fmt.Errorf("failed to marshal prices: %w", err)
	}
	listingsJSON, err := json.Marshal(set.Listings)
	if err != nil {
		return fmt.Errorf("failed to marshal listings: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO comparable_pricing
		(search_key, year, make, model, prices, listings, median_price, average_price,
		 sample_count, min_price, max_price, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`

	_, err = d.db.Exec(query, searchKey, year, makeName, model,
		string(pricesJSON), string(listingsJSON),
		set.Median, set.Average, set.Count, set.Min, set.Max)
	if err != nil {
		return fmt.Errorf("failed to save comparables: %w", err)
	}

	return nil
}

// ComparableKeys lists every search key in the price book with sample
// counts, for the CLI status view
func (d *Database) ComparableKeys() ([]string, error) {
	rows, err := d.db.Query(`SELECT search_key, sample_count FROM comparable_pricing ORDER BY search_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparable keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, fmt.Sprintf("%s (%d samples)", key, count))
	}

	return keys, rows.Err()
}
