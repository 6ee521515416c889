package vehicle

import (
	"math"
	"time"

	"marketscout/internal/models"
)

// ValuationConfig carries the assumptions behind the generic
// depreciation model. The as-of year and the new-vehicle baseline are
// injected rather than hardcoded so the model doesn't silently go stale.
type ValuationConfig struct {
	AsOfYear         int
	BaselineNewPrice int // rough average new-vehicle price across classes
	AnnualMiles      int // expected miles driven per year of age
	PerMileRate      float64
}

// DefaultValuationConfig returns the standard model assumptions,
// anchored to the current year.
func DefaultValuationConfig() ValuationConfig {
	return ValuationConfig{
		AsOfYear:         time.Now().Year(),
		BaselineNewPrice: 35000,
		AnnualMiles:      13000,
		PerMileRate:      0.10,
	}
}

// Estimator computes fair-value estimates for vehicle listings
type Estimator struct {
	cfg ValuationConfig
}

// NewEstimator creates an estimator with the given model assumptions
func NewEstimator(cfg ValuationConfig) *Estimator {
	if cfg.AsOfYear == 0 {
		cfg = DefaultValuationConfig()
	}
	return &Estimator{cfg: cfg}
}

// ConditionMultiplier returns the multiplicative value reduction for
// the detected issues. The four headline issues carry their own factors
// (salvage 0.5, not running 0.4, transmission 0.7, engine 0.6); every
// other issue compounds a further 0.85. Factors commute, so the order
// of detected issues never changes the result.
func ConditionMultiplier(condition models.ConditionReport) float64 {
	if !condition.HasMajorIssues {
		return 1.0
	}

	multiplier := 1.0
	otherIssues := 0
	for _, issue := range condition.Issues {
		switch issue {
		case models.IssueSalvage:
			multiplier *= 0.5
		case models.IssueNotRunning:
			multiplier *= 0.4
		case models.IssueTransmission:
			multiplier *= 0.7
		case models.IssueEngine:
			multiplier *= 0.6
		default:
			otherIssues++
		}
	}
	return multiplier * math.Pow(0.85, float64(otherIssues))
}

// conditionNotes translates the headline issues into the caveat strings
// used in valuation output and notes text
func conditionNotes(condition models.ConditionReport) []string {
	if !condition.HasMajorIssues {
		return nil
	}

	var notes []string
	if condition.Has(models.IssueSalvage) {
		notes = append(notes, "salvage title")
	}
	if condition.Has(models.IssueNotRunning) {
		notes = append(notes, "not running")
	}
	if condition.Has(models.IssueTransmission) {
		notes = append(notes, "transmission damage")
	}
	if condition.Has(models.IssueEngine) {
		notes = append(notes, "engine damage")
	}
	return notes
}

// EstimateValue runs the generic age/mileage depreciation model. It is
// the fallback when no comparable set exists; a nil result means the
// year is unknown and no valuation is possible. The function is pure -
// identical inputs always produce identical output.
func (e *Estimator) EstimateValue(year, mileage, askingPrice int, condition models.ConditionReport) *models.Valuation {
	if year == 0 {
		return nil
	}

	age := e.cfg.AsOfYear - year

	// Year 0: -20%, year 1: -15%, year 2: -12%, then -10% per year as
	// exponential decay anchored at the age-2 value
	var depreciation float64
	switch {
	case age <= 0:
		depreciation = 0.80
	case age == 1:
		depreciation = 0.68
	case age == 2:
		depreciation = 0.60
	default:
		depreciation = 0.60 * math.Pow(0.90, float64(age-2))
	}

	mileageMultiplier := 1.0
	if mileage > 0 {
		expectedMileage := age * e.cfg.AnnualMiles
		adjustment := float64(mileage-expectedMileage) * e.cfg.PerMileRate / float64(e.cfg.BaselineNewPrice)
		mileageMultiplier = math.Max(0.5, math.Min(1.2, 1.0-adjustment))
	}

	estimated := float64(e.cfg.BaselineNewPrice) * depreciation * mileageMultiplier
	estimated *= ConditionMultiplier(condition)

	return e.valuationFor(int(math.Round(estimated)), askingPrice, condition)
}

// EstimateFromComparables uses a comparable-set median as the market
// value, condition-adjusted with the same multipliers as the generic
// model. A nil result means the set has no median to work from.
func (e *Estimator) EstimateFromComparables(set *models.ComparableSet, askingPrice int, condition models.ConditionReport) *models.Valuation {
	if set == nil || set.Median == 0 {
		return nil
	}

	adjusted := int(math.Round(float64(set.Median) * ConditionMultiplier(condition)))
	return e.valuationFor(adjusted, askingPrice, condition)
}

func (e *Estimator) valuationFor(estimatedValue, askingPrice int, condition models.ConditionReport) *models.Valuation {
	percent := 0
	if estimatedValue > 0 {
		percent = int(math.Round(float64(askingPrice) / float64(estimatedValue) * 100))
	}

	return &models.Valuation{
		EstimatedValue:    estimatedValue,
		PercentOfValue:    percent,
		IsGoodDeal:        percent < GoodDealPercent,
		IsGreatDeal:       percent <= GreatDealPercent,
		ConditionAdjusted: condition.HasMajorIssues,
		ConditionNotes:    conditionNotes(condition),
	}
}

// Deal quality boundaries. Asking exactly 70% of market (30% below)
// still counts as a great deal; 115 is where the prompt context starts
// suggesting a negotiated discount; 120 is the overpriced label.
const (
	GreatDealPercent  = 70
	GoodDealPercent   = 85
	NegotiatePercent  = 115
	OverpricedPercent = 120
)

// DealQuality classifies an asking price as a percentage of estimated
// market value
func DealQuality(percentOfValue int) string {
	switch {
	case percentOfValue <= GreatDealPercent:
		return "Great deal"
	case percentOfValue < GoodDealPercent:
		return "Good deal"
	case percentOfValue > OverpricedPercent:
		return "Overpriced"
	default:
		return "Fair price"
	}
}
