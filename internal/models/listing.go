package models

import "time"

// Listing represents a raw marketplace listing as captured from the page
type Listing struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// VehicleInfo holds vehicle attributes extracted from listing text.
// Zero values (0, "") mean the field could not be extracted - they are
// never default guesses.
type VehicleInfo struct {
	Year      int    `json:"year,omitempty"`
	Mileage   int    `json:"mileage,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	IsVehicle bool   `json:"isVehicle"`
}

// IssueTag identifies a detected damage/condition problem
type IssueTag string

const (
	IssueTransmission IssueTag = "transmission"
	IssueEngine       IssueTag = "engine"
	IssueSalvage      IssueTag = "salvage"
	IssueNotRunning   IssueTag = "notRunning"
	IssueFrameRust    IssueTag = "frameRust"
	IssueAsIs         IssueTag = "asIs"
	IssueNeedsRepair  IssueTag = "needsRepair"
)

// ConditionReport lists the condition issues detected in listing text
type ConditionReport struct {
	Issues         []IssueTag `json:"issues"`
	HasMajorIssues bool       `json:"hasMajorIssues"`
	Severity       int        `json:"severity"` // 0 = clean, 1-2 = minor, 3+ = major
}

// Has reports whether the given issue was detected
func (c ConditionReport) Has(tag IssueTag) bool {
	for _, t := range c.Issues {
		if t == tag {
			return true
		}
	}
	return false
}

// ComparableListing is a single comparable sample scraped from search results
type ComparableListing struct {
	Price       int    `json:"price"`
	Text        string `json:"text"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Mileage     string `json:"mileage,omitempty"`
	Year        string `json:"year,omitempty"`
	URL         string `json:"url,omitempty"`
	Matched     bool   `json:"matched"`
}

// ComparableSet holds the outlier-trimmed price samples for one
// (year, make, model) combination plus the retained listings.
// Prices are ascending with no duplicates and count == len(prices).
type ComparableSet struct {
	Prices      []int               `json:"prices"`
	Median      int                 `json:"median"`
	Average     int                 `json:"average"`
	Min         int                 `json:"min"`
	Max         int                 `json:"max"`
	Count       int                 `json:"count"`
	Listings    []ComparableListing `json:"listings"`
	LastUpdated time.Time           `json:"lastUpdated,omitempty"`
}

// Valuation is the output of the valuation engine for one listing
type Valuation struct {
	EstimatedValue    int      `json:"estimatedValue"`
	PercentOfValue    int      `json:"percentOfValue"`
	IsGoodDeal        bool     `json:"isGoodDeal"`
	IsGreatDeal       bool     `json:"isGreatDeal"`
	ConditionAdjusted bool     `json:"conditionAdjusted"`
	ConditionNotes    []string `json:"conditionNotes,omitempty"`
}

// Evaluation is the persisted verdict for one listing
type Evaluation struct {
	FlipScore      int    `json:"flip_score"`
	WeirdnessScore int    `json:"weirdness_score"`
	ScamLikelihood int    `json:"scam_likelihood"`
	Notes          string `json:"notes"`
	Method         string `json:"method,omitempty"` // anthropic, ollama or heuristic
}

// EvaluationRecord is an Evaluation joined with the listing fields it was
// computed from, as stored in the evaluations table.
type EvaluationRecord struct {
	Evaluation
	ListingURL     string    `json:"listing_url"`
	Title          string    `json:"title"`
	Price          string    `json:"price"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	VehicleYear    int       `json:"vehicle_year,omitempty"`
	VehicleMake    string    `json:"vehicle_make,omitempty"`
	VehicleModel   string    `json:"vehicle_model,omitempty"`
	VehicleMileage string    `json:"vehicle_mileage,omitempty"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}
