package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"marketscout/internal/comparables"
	"marketscout/internal/database"
	"marketscout/internal/evaluator"
	"marketscout/internal/middleware"
	"marketscout/internal/models"
	"marketscout/internal/scraper"
	"marketscout/internal/vehicle"
)

func main() {
	fmt.Println("🔭 Marketplace Scout")
	fmt.Println("====================")

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/scout/main.go <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  init                              - Initialize the database")
		fmt.Println("  evaluate <url> <title> <price> [description]")
		fmt.Println("                                    - Score one listing")
		fmt.Println("  comparables <year> <make> <model> - Look up or fetch comparable prices")
		fmt.Println("  import-json [path]                - Import a legacy JSON price book")
		fmt.Println("  status                            - Show database status")
		fmt.Println("  hash-key <key>                    - Hash an admin key for ADMIN_KEY_HASH")
		os.Exit(1)
	}

	command := os.Args[1]

	// hash-key needs no database
	if command == "hash-key" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: scout hash-key <key>")
		}
		hash, err := middleware.HashAdminKey(os.Args[2])
		if err != nil {
			log.Fatal("Failed to hash key:", err)
		}
		fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/marketscout.db"
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	switch command {
	case "init":
		// NewDatabase already applied the schema
		fmt.Printf("✅ Database initialized at %s\n", dbPath)
	case "evaluate":
		runEvaluate(db, os.Args[2:])
	case "comparables":
		runComparables(db, os.Args[2:])
	case "import-json":
		jsonPath := "./data/price-book.json"
		if len(os.Args) >= 3 {
			jsonPath = os.Args[2]
		}
		runImport(db, jsonPath)
	case "status":
		showStatus(db, dbPath)
	default:
		log.Fatal("Unknown command:", command)
	}
}

func runEvaluate(db *database.Database, args []string) {
	if len(args) < 3 {
		log.Fatal("Usage: scout evaluate <url> <title> <price> [description]")
	}

	listing := models.Listing{
		URL:   args[0],
		Title: args[1],
		Price: args[2],
	}
	if len(args) >= 4 {
		listing.Description = strings.Join(args[3:], " ")
	}

	search := scraper.NewMarketplaceScraper()
	defer search.Close()

	aggregator := comparables.New(db, search)
	estimator := vehicle.NewEstimator(vehicle.DefaultValuationConfig())
	pipeline := evaluator.DefaultPipeline(aggregator, estimator)

	result := pipeline.Evaluate(listing)
	info := vehicle.ExtractVehicleInfo(listing.Title, listing.Description)

	fmt.Println()
	fmt.Printf("Flip potential:  %d/10\n", result.FlipScore)
	fmt.Printf("Weirdness:       %d/10\n", result.WeirdnessScore)
	fmt.Printf("Scam likelihood: %d/10\n", result.ScamLikelihood)
	fmt.Printf("Method:          %s\n", result.Method)
	fmt.Printf("Notes:           %s\n", result.Notes)

	if err := db.SaveEvaluation(listing, result, info); err != nil {
		log.Printf("Warning: failed to save evaluation: %v", err)
	} else {
		fmt.Println("💾 Evaluation saved")
	}
}

func runComparables(db *database.Database, args []string) {
	if len(args) < 3 {
		log.Fatal("Usage: scout comparables <year> <make> <model>")
	}

	year, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("Year must be a number:", args[0])
	}
	makeName := args[1]
	model := strings.Join(args[2:], " ")

	search := scraper.NewMarketplaceScraper()
	defer search.Close()

	aggregator := comparables.New(db, search)

	set, err := aggregator.GetComparables(year, makeName, model)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	if set == nil {
		fmt.Printf("❌ No comparables found for %d %s %s\n", year, makeName, model)
		return
	}

	fmt.Printf("\n📊 %d %s %s (%d samples)\n", year, makeName, model, set.Count)
	fmt.Printf("   Median:  $%d\n", set.Median)
	fmt.Printf("   Average: $%d\n", set.Average)
	fmt.Printf("   Range:   $%d - $%d\n", set.Min, set.Max)
	for i, l := range set.Listings {
		text := l.Text
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		fmt.Printf("   %d. $%d - %s\n", i+1, l.Price, text)
	}
}

func runImport(db *database.Database, jsonPath string) {
	fmt.Printf("Importing price book from %s...\n", jsonPath)

	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		fmt.Printf("❌ File not found: %s\n", jsonPath)
		return
	}

	if err := db.BackupCurrentData("./data"); err != nil {
		log.Printf("Warning: backup failed: %v", err)
	}

	if err := db.ImportPriceBookFromJSON(jsonPath); err != nil {
		log.Fatal("Import failed:", err)
	}
}

func showStatus(db *database.Database, dbPath string) {
	fmt.Println("Database Status")
	fmt.Println("===============")

	summary, err := db.InventorySummary()
	if err != nil {
		log.Fatal("Failed to read inventory:", err)
	}

	total := 0
	for _, row := range summary {
		total += row.Count
	}
	fmt.Printf("📋 Evaluated vehicles: %d across %d (year, make, model) groups\n", total, len(summary))

	keys, err := db.ComparableKeys()
	if err != nil {
		log.Fatal("Failed to read price book:", err)
	}
	fmt.Printf("📊 Price book entries: %d\n", len(keys))
	for _, key := range keys {
		fmt.Printf("   %s\n", key)
	}

	if stat, err := os.Stat(dbPath); err == nil {
		fmt.Printf("💾 Database size: %.2f KB\n", float64(stat.Size())/1024)
	}
}
