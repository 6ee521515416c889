package database

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"marketscout/internal/models"
)

func TestMain(m *testing.M) {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	root := filepath.Join(cwd, "..", "..")
	if err := os.Chdir(root); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	return db
}

func saveTestEvaluation(t *testing.T, db *Database, url, title string, info models.VehicleInfo) {
	t.Helper()
	listing := models.Listing{
		URL:         url,
		Title:       title,
		Price:       "$9,500",
		Description: "runs great",
		Location:    "Seymour, CT",
	}
	eval := &models.Evaluation{
		FlipScore:      7,
		WeirdnessScore: 3,
		ScamLikelihood: 2,
		Notes:          "Great deal",
		Method:         "heuristic",
	}
	if err := db.SaveEvaluation(listing, eval, info); err != nil {
		t.Fatalf("SaveEvaluation failed: %v", err)
	}
}

func TestSaveAndGetEvaluation(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	info := models.VehicleInfo{
		Year:      2015,
		Make:      "Toyota",
		Model:     "Tacoma",
		Mileage:   90000,
		IsVehicle: true,
	}
	saveTestEvaluation(t, db, "https://www.facebook.com/marketplace/item/123456789012345/", "2015 Toyota Tacoma", info)

	record, err := db.GetEvaluation("https://www.facebook.com/marketplace/item/123456789012345/")
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record, got nil")
	}
	if record.FlipScore != 7 || record.WeirdnessScore != 3 || record.ScamLikelihood != 2 {
		t.Errorf("unexpected scores: %d/%d/%d", record.FlipScore, record.WeirdnessScore, record.ScamLikelihood)
	}
	if record.Method != "heuristic" {
		t.Errorf("expected method heuristic, got %q", record.Method)
	}
	if record.VehicleYear != 2015 || record.VehicleMake != "Toyota" || record.VehicleModel != "Tacoma" {
		t.Errorf("unexpected vehicle fields: %d %s %s", record.VehicleYear, record.VehicleMake, record.VehicleModel)
	}
	if record.VehicleMileage != "90k miles" {
		t.Errorf("expected mileage '90k miles', got %q", record.VehicleMileage)
	}
	if record.EvaluatedAt.IsZero() {
		t.Error("expected evaluated_at to be set")
	}
}

func TestGetEvaluationMiss(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	record, err := db.GetEvaluation("https://example.com/never-seen")
	if err != nil {
		t.Fatalf("expected nil error on miss, got %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record on miss, got %+v", record)
	}
}

func TestSaveEvaluationUpsert(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	url := "https://www.facebook.com/marketplace/item/555000111/"
	saveTestEvaluation(t, db, url, "2015 Toyota Tacoma", models.VehicleInfo{IsVehicle: false})

	listing := models.Listing{URL: url, Title: "2015 Toyota Tacoma TRD", Price: "$8,000"}
	eval := &models.Evaluation{FlipScore: 9, WeirdnessScore: 2, ScamLikelihood: 1, Notes: "Updated", Method: "anthropic"}
	if err := db.SaveEvaluation(listing, eval, models.VehicleInfo{IsVehicle: false}); err != nil {
		t.Fatalf("second SaveEvaluation failed: %v", err)
	}

	record, err := db.GetEvaluation(url)
	if err != nil || record == nil {
		t.Fatalf("GetEvaluation after upsert failed: record=%v err=%v", record, err)
	}
	if record.FlipScore != 9 || record.Method != "anthropic" {
		t.Errorf("upsert not applied: flip=%d method=%q", record.FlipScore, record.Method)
	}

	// A non-vehicle listing leaves the vehicle columns NULL
	if record.VehicleYear != 0 || record.VehicleMake != "" || record.VehicleMileage != "" {
		t.Errorf("expected empty vehicle fields: %d %q %q", record.VehicleYear, record.VehicleMake, record.VehicleMileage)
	}
}

func TestGetEvaluationByItemID(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	saveTestEvaluation(t, db, "https://www.facebook.com/marketplace/item/987654321000/", "Old couch", models.VehicleInfo{})

	record, err := db.GetEvaluationByItemID("987654321000")
	if err != nil {
		t.Fatalf("GetEvaluationByItemID failed: %v", err)
	}
	if record == nil || record.Title != "Old couch" {
		t.Fatalf("expected couch record, got %+v", record)
	}

	record, err = db.GetEvaluationByItemID("111222333444")
	if err != nil || record != nil {
		t.Fatalf("expected nil,nil for unknown item id, got %v err=%v", record, err)
	}
}

func TestInventoryQueries(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	vehicles := []struct {
		url   string
		title string
		info  models.VehicleInfo
	}{
		{"https://fb.com/marketplace/item/1/", "2015 Toyota Tacoma", models.VehicleInfo{Year: 2015, Make: "Toyota", Model: "Tacoma", IsVehicle: true}},
		{"https://fb.com/marketplace/item/2/", "2015 Toyota Tacoma TRD", models.VehicleInfo{Year: 2015, Make: "Toyota", Model: "Tacoma", IsVehicle: true}},
		{"https://fb.com/marketplace/item/3/", "2018 Toyota Camry", models.VehicleInfo{Year: 2018, Make: "Toyota", Model: "Camry", IsVehicle: true}},
		{"https://fb.com/marketplace/item/4/", "2012 Honda Civic", models.VehicleInfo{Year: 2012, Make: "Honda", Model: "Civic", IsVehicle: true}},
		{"https://fb.com/marketplace/item/5/", "Dining table", models.VehicleInfo{IsVehicle: false}},
	}
	for _, v := range vehicles {
		saveTestEvaluation(t, db, v.url, v.title, v.info)
	}

	summary, err := db.InventorySummary()
	if err != nil {
		t.Fatalf("InventorySummary failed: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected 3 summary rows, got %d: %+v", len(summary), summary)
	}

	makes, err := db.InventoryMakes()
	if err != nil {
		t.Fatalf("InventoryMakes failed: %v", err)
	}
	if len(makes) != 2 {
		t.Fatalf("expected 2 makes, got %d", len(makes))
	}
	// Alphabetical: Honda first
	if makes[0].Make != "Honda" || makes[0].Count != 1 {
		t.Errorf("unexpected first make row: %+v", makes[0])
	}
	if makes[1].Make != "Toyota" || makes[1].Count != 3 {
		t.Errorf("unexpected Toyota row: %+v", makes[1])
	}
	if makes[1].MinYear != 2015 || makes[1].MaxYear != 2018 {
		t.Errorf("unexpected Toyota year range: %+v", makes[1])
	}

	years, err := db.YearsForMake("Toyota")
	if err != nil {
		t.Fatalf("YearsForMake failed: %v", err)
	}
	if len(years) != 2 || years[0].Year != 2018 || years[1].Year != 2015 {
		t.Fatalf("unexpected years: %+v", years)
	}
	if years[1].Count != 2 {
		t.Errorf("expected 2 Tacomas in 2015, got %d", years[1].Count)
	}

	modelRows, err := db.ModelsForMakeYear("Toyota", 2015)
	if err != nil {
		t.Fatalf("ModelsForMakeYear failed: %v", err)
	}
	if len(modelRows) != 1 || modelRows[0].Model != "Tacoma" || modelRows[0].Count != 2 {
		t.Fatalf("unexpected model rows: %+v", modelRows)
	}

	records, err := db.EvaluationsForVehicle(2015, "Toyota", "Tacoma")
	if err != nil {
		t.Fatalf("EvaluationsForVehicle failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 Tacoma evaluations, got %d", len(records))
	}
	for _, r := range records {
		if r.VehicleMake != "Toyota" || r.VehicleYear != 2015 {
			t.Errorf("unexpected record in vehicle listing: %+v", r)
		}
	}
}

func TestComparablesRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	// Cache miss returns nil, nil
	set, err := db.GetComparables("2015_toyota_tacoma")
	if err != nil || set != nil {
		t.Fatalf("expected nil,nil on miss, got %v err=%v", set, err)
	}

	in := &models.ComparableSet{
		Prices:  []int{10000, 12000, 14000},
		Median:  12000,
		Average: 12000,
		Min:     10000,
		Max:     14000,
		Count:   3,
		Listings: []models.ComparableListing{
			{Text: "2015 Toyota Tacoma - $12,000", URL: "https://fb.com/marketplace/item/9/", Price: 12000},
		},
	}
	if err := db.PutComparables("2015_toyota_tacoma", 2015, "Toyota", "Tacoma", in); err != nil {
		t.Fatalf("PutComparables failed: %v", err)
	}

	out, err := db.GetComparables("2015_toyota_tacoma")
	if err != nil {
		t.Fatalf("GetComparables failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected cached set, got nil")
	}
	if out.Median != 12000 || out.Count != 3 || out.Min != 10000 || out.Max != 14000 {
		t.Errorf("unexpected stats: %+v", out)
	}
	if len(out.Prices) != 3 || out.Prices[1] != 12000 {
		t.Errorf("prices not round-tripped: %v", out.Prices)
	}
	if len(out.Listings) != 1 || out.Listings[0].Price != 12000 {
		t.Errorf("listings not round-tripped: %+v", out.Listings)
	}
	if out.LastUpdated.IsZero() {
		t.Error("expected last_updated to be set")
	}

	// Upsert replaces the entry under the same key
	in.Prices = append(in.Prices, 15000)
	in.Count = 4
	in.Max = 15000
	if err := db.PutComparables("2015_toyota_tacoma", 2015, "Toyota", "Tacoma", in); err != nil {
		t.Fatalf("PutComparables upsert failed: %v", err)
	}
	out, err = db.GetComparables("2015_toyota_tacoma")
	if err != nil || out == nil || out.Count != 4 || out.Max != 15000 {
		t.Fatalf("upsert not applied: %+v err=%v", out, err)
	}

	keys, err := db.ComparableKeys()
	if err != nil {
		t.Fatalf("ComparableKeys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "2015_toyota_tacoma (4 samples)" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestImportPriceBookFromJSON(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	book := map[string]interface{}{
		"2015_toyota_tacoma": map[string]interface{}{
			"year":         2015,
			"make":         "Toyota",
			"model":        "Tacoma",
			"prices":       []int{9000, 11000, 13000},
			"medianPrice":  11000,
			"averagePrice": 11000,
		},
		// Stats missing, recomputed on import
		"2012_honda_civic": map[string]interface{}{
			"year":   2012,
			"make":   "Honda",
			"model":  "Civic",
			"prices": []int{6000, 7000, 8000},
		},
		"empty_entry": map[string]interface{}{
			"year":   2010,
			"make":   "Ford",
			"model":  "Focus",
			"prices": []int{},
		},
	}

	data, err := json.Marshal(book)
	if err != nil {
		t.Fatalf("failed to marshal test book: %v", err)
	}
	bookPath := filepath.Join(t.TempDir(), "price-book.json")
	if err := os.WriteFile(bookPath, data, 0644); err != nil {
		t.Fatalf("failed to write test book: %v", err)
	}

	if err := db.ImportPriceBookFromJSON(bookPath); err != nil {
		t.Fatalf("ImportPriceBookFromJSON failed: %v", err)
	}

	set, err := db.GetComparables("2015_toyota_tacoma")
	if err != nil || set == nil {
		t.Fatalf("expected imported tacoma entry: %v err=%v", set, err)
	}
	if set.Median != 11000 || set.Count != 3 {
		t.Errorf("unexpected tacoma stats: %+v", set)
	}

	civic, err := db.GetComparables("2012_honda_civic")
	if err != nil || civic == nil {
		t.Fatalf("expected imported civic entry: %v err=%v", civic, err)
	}
	if civic.Median != 7000 || civic.Average != 7000 || civic.Min != 6000 || civic.Max != 8000 {
		t.Errorf("recomputed civic stats wrong: %+v", civic)
	}

	// Empty entries are skipped
	empty, err := db.GetComparables("empty_entry")
	if err != nil || empty != nil {
		t.Fatalf("expected empty entry to be skipped, got %v err=%v", empty, err)
	}

	if err := db.ImportPriceBookFromJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing price book file")
	}
}

func TestBackupCurrentData(t *testing.T) {
	db := newTestDatabase(t)
	defer db.Close()

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "price-book.json"), []byte(`{}`), 0644); err != nil {
		t.Fatalf("failed to seed data dir: %v", err)
	}

	if err := db.BackupCurrentData(dataDir); err != nil {
		t.Fatalf("BackupCurrentData failed: %v", err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("failed to read data dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.IsDir() {
			if _, err := os.Stat(filepath.Join(dataDir, e.Name(), "price-book.json")); err == nil {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected backup directory containing price-book.json")
	}
}
