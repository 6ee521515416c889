package database

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"marketscout/internal/models"
)

// ImportPriceBookFromJSON imports a legacy JSON price book into the
// comparable_pricing table. The legacy format maps search keys to
// price arrays with precomputed stats.
func (d *Database) ImportPriceBookFromJSON(jsonPath string) error {
	file, err := os.Open(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to open price book file: %w", err)
	}
	defer file.Close()

	// Legacy JSON structure for import
	var priceBook map[string]struct {
		Year     int                        `json:"year"`
		Make     string                     `json:"make"`
		Model    string                     `json:"model"`
		Prices   []int                      `json:"prices"`
		Listings []models.ComparableListing `json:"listings,omitempty"`
		Median   int                        `json:"medianPrice"`
		Average  int                        `json:"averagePrice"`
	}

	if err := json.NewDecoder(file).Decode(&priceBook); err != nil {
		return fmt.Errorf("failed to decode price book JSON: %w", err)
	}

	// Begin transaction
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare insert statement
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO comparable_pricing
		(search_key, year, make, model, prices, listings, median_price, average_price,
		 sample_count, min_price, max_price, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	imported := 0
	for key, entry := range priceBook {
		if len(entry.Prices) == 0 {
			continue // Skip empty entries
		}

		pricesJSON, err := json.Marshal(entry.Prices)
		if err != nil {
			return fmt.Errorf("failed to marshal prices for %s: %w", key, err)
		}
		listingsJSON, err := json.Marshal(entry.Listings)
		if err != nil {
			return fmt.Errorf("failed to marshal listings for %s: %w", key, err)
		}

		// Recompute stats the legacy file may lack
		min, max := entry.Prices[0], entry.Prices[0]
		sum := 0
		for _, p := range entry.Prices {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
			sum += p
		}
		median := entry.Median
		if median == 0 {
			median = entry.Prices[len(entry.Prices)/2]
		}
		average := entry.Average
		if average == 0 {
			average = sum / len(entry.Prices)
		}

		_, err = stmt.Exec(key, entry.Year, entry.Make, entry.Model,
			string(pricesJSON), string(listingsJSON),
			median, average, len(entry.Prices), min, max)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", key, err)
		}
		imported++
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fmt.Printf("Successfully imported %d price book entries to database\n", imported)
	return nil
}

// BackupCurrentData creates a backup of current JSON files before import
func (d *Database) BackupCurrentData(dataDir string) error {
	backupDir := fmt.Sprintf("%s/backup_%d", dataDir, time.Now().Unix())

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Files to backup
	files := []string{"price-book.json", "evaluations.json"}

	for _, filename := range files {
		srcPath := fmt.Sprintf("%s/%s", dataDir, filename)
		dstPath := fmt.Sprintf("%s/%s", backupDir, filename)

		// Check if source file exists
		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			continue // Skip if file doesn't exist
		}

		// Copy file
		if err := copyFile(srcPath, dstPath); err != nil {
			return fmt.Errorf("failed to backup %s: %w", filename, err)
		}
	}

	fmt.Printf("Data backed up to: %s\n", backupDir)
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
