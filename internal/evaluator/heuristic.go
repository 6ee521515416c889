package evaluator

import (
	"fmt"
	"regexp"
	"strings"

	"marketscout/internal/models"
	"marketscout/internal/vehicle"
)

var (
	flipVintagePattern = regexp.MustCompile(`vintage|antique|rare|estate|bulk|lot of`)
	flipNegotiable     = regexp.MustCompile(`free|obo`)
	flipTestEquipment  = regexp.MustCompile(`oscilloscope|test equipment|darkroom|enlarger|film`)

	weirdNicheTech  = regexp.MustCompile(`tube|valve|oscilloscope|darkroom|enlarger|reel-to-reel`)
	weirdVintage    = regexp.MustCompile(`vintage|antique|unique|rare|unusual`)
	weirdIndustrial = regexp.MustCompile(`test equipment|military|industrial`)

	scamElectronics = regexp.MustCompile(`iphone|macbook|ps5|xbox|airpods`)
	scamOffPlatform = regexp.MustCompile(`dm|whatsapp|telegram|cashapp`)

	nearbyTowns     = regexp.MustCompile(`(?i)seymour|naugatuck|derby|ansonia|beacon falls|oxford`)
	commutableTowns = regexp.MustCompile(`(?i)waterbury|meriden|new haven|bridgeport`)
)

// HeuristicStrategy is the deterministic fallback scorer. It always
// produces a result, which is the pipeline's availability guarantee.
type HeuristicStrategy struct {
	estimator *vehicle.Estimator
}

// NewHeuristicStrategy creates the fallback scorer around the given
// valuation engine
func NewHeuristicStrategy(estimator *vehicle.Estimator) *HeuristicStrategy {
	if estimator == nil {
		estimator = vehicle.NewEstimator(vehicle.DefaultValuationConfig())
	}
	return &HeuristicStrategy{estimator: estimator}
}

func (s *HeuristicStrategy) Name() string { return "heuristic" }

// Evaluate scores a listing from keyword families, vehicle valuation
// and location proximity. Scores start at 3/3/3 and are clamped to
// [1,10]; the error return is always nil.
func (s *HeuristicStrategy) Evaluate(listing models.Listing, vctx *VehicleContext) (*models.Evaluation, error) {
	text := strings.ToLower(listing.Title + " " + listing.Description + " " + listing.Location)
	price := ParsePrice(listing.Price)

	flip, weird, scam := 3, 3, 3
	notes := ""

	if vctx != nil {
		flip, scam, notes = s.scoreVehicle(vctx, flip, scam)
	}

	var actionable []string

	// Flip boosters
	if flipVintagePattern.MatchString(text) {
		flip += 3
		actionable = append(actionable, "Vintage/rare - research eBay sold listings")
	}
	if flipNegotiable.MatchString(text) {
		flip += 2
		actionable = append(actionable, "Negotiable/free - make lowball offer")
	}
	if flipTestEquipment.MatchString(text) {
		flip += 2
		actionable = append(actionable, "Test equipment - $300-1000 resale potential if working")
	}
	if price > 0 && price < 50 {
		flip++
		actionable = append(actionable, "Under $50 - low risk flip")
	}

	// Weirdness boosters
	if weirdNicheTech.MatchString(text) {
		weird += 4
		actionable = append(actionable, "Niche vintage tech - check audiophile/photography forums")
	}
	if weirdVintage.MatchString(text) {
		weird += 2
	}
	if weirdIndustrial.MatchString(text) {
		weird += 2
		actionable = append(actionable, "Industrial/military surplus - specialist market")
	}

	// Scam indicators
	if scamElectronics.MatchString(text) && price < 200 {
		scam += 5
		actionable = append(actionable, "⚠️ TOO CHEAP for electronics - likely scam, verify IMEI/serial")
	}
	if price < 10 && !strings.Contains(text, "free") {
		scam += 3
		actionable = append(actionable, "Suspiciously low price")
	}
	if len(listing.Location) < 3 {
		scam += 2
		actionable = append(actionable, "No location listed - red flag")
	}
	if scamOffPlatform.MatchString(text) {
		scam += 4
		actionable = append(actionable, "⚠️ Off-platform communication requested - major red flag")
	}

	// Nearby towns boost flip and lower scam; the commutable tier only
	// adds a logistics note
	if match := nearbyTowns.FindString(listing.Location); match != "" {
		flip++
		scam--
		actionable = append(actionable, fmt.Sprintf("✓ %s - near you (~5-10min drive)", match))
	} else if listing.Location != "" && commutableTowns.MatchString(listing.Location) {
		actionable = append(actionable, fmt.Sprintf("%s - 15-25min drive, doable Friday", listing.Location))
	}

	if notes == "" && len(actionable) == 0 {
		if flip >= 7 {
			actionable = append(actionable, "Good flip potential - act fast")
		} else if scam >= 7 {
			actionable = append(actionable, "High scam risk - proceed with caution or skip")
		}
	}

	if notes == "" {
		notes = strings.Join(actionable, ". ")
	} else if len(actionable) > 0 {
		notes += ". " + strings.Join(actionable, ". ")
	}

	flip = clampScore(flip)
	weird = clampScore(weird)
	scam = clampScore(scam)

	if notes == "" {
		switch {
		case flip >= 7:
			notes = "Good flip potential"
		case weird >= 7:
			notes = "Interesting item"
		case scam >= 7:
			notes = "High scam risk"
		default:
			notes = "Standard listing"
		}
	}

	return &models.Evaluation{
		FlipScore:      flip,
		WeirdnessScore: weird,
		ScamLikelihood: scam,
		Notes:          notes,
	}, nil
}

// scoreVehicle adjusts flip/scam from the valuation result, preferring
// the comparable-based valuation from the context and falling back to
// the generic depreciation model
func (s *HeuristicStrategy) scoreVehicle(vctx *VehicleContext, flip, scam int) (int, int, string) {
	valuation := vctx.Valuation
	source := vctx.Source
	if valuation == nil {
		valuation = s.estimator.EstimateValue(vctx.Info.Year, vctx.Info.Mileage, vctx.AskingPrice, vctx.Condition)
		source = "generic model"
	}
	if valuation == nil {
		fmt.Println("   ⚠️  Valuation failed (no year or comparable search error)")
		return flip, scam, ""
	}

	percent := valuation.PercentOfValue

	if valuation.ConditionAdjusted {
		// Damaged vehicles are harder to flip unless dirt cheap
		if !valuation.IsGreatDeal {
			flip--
		}
		// Multiple issues but not priced accordingly
		if percent > 80 && vctx.Condition.Severity >= 2 {
			scam += 2
		}
	}

	var notes string
	value := formatDollars(valuation.EstimatedValue)
	switch {
	case valuation.IsGreatDeal:
		flip += 4
		notes = fmt.Sprintf("Great deal! Asking %d%% of market ($%s from %s)", percent, value, source)
	case valuation.IsGoodDeal:
		flip += 2
		notes = fmt.Sprintf("Good deal! Asking %d%% of market ($%s from %s)", percent, value, source)
	case percent > vehicle.OverpricedPercent:
		flip--
		scam++
		notes = fmt.Sprintf("Overpriced at %d%% of market ($%s from %s)", percent, value, source)
	default:
		notes = fmt.Sprintf("Fair price at %d%% of market ($%s from %s)", percent, value, source)
	}

	if valuation.ConditionAdjusted && len(valuation.ConditionNotes) > 0 {
		notes += " ⚠️ HAS: " + strings.Join(valuation.ConditionNotes, ", ")
	}

	if vctx.Info.Year > 0 {
		notes += fmt.Sprintf(" | %d", vctx.Info.Year)
	}
	if vctx.Info.Make != "" {
		notes += " " + vctx.Info.Make
	}
	if vctx.Info.Mileage > 0 {
		notes += fmt.Sprintf(" | %dk mi", (vctx.Info.Mileage+500)/1000)
	}

	fmt.Printf("   📝 Vehicle notes: %q\n", notes)
	return flip, scam, notes
}
