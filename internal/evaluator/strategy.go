// Package evaluator scores marketplace listings for flip potential,
// weirdness and scam likelihood through a chain of strategies: a remote
// LLM first, a local LLM second, and a deterministic heuristic that
// always produces a result.
package evaluator

import (
	"fmt"
	"log"
	"strings"

	"marketscout/internal/comparables"
	"marketscout/internal/models"
	"marketscout/internal/vehicle"
)

// Strategy is one way of scoring a listing. A (nil, nil) return means
// "no result, try the next strategy" - strategies never panic or leak
// errors past this boundary.
type Strategy interface {
	Name() string
	Evaluate(listing models.Listing, vctx *VehicleContext) (*models.Evaluation, error)
}

// VehicleContext carries the valuation data shared by every strategy
// for a priced vehicle listing
type VehicleContext struct {
	Info            models.VehicleInfo
	Condition       models.ConditionReport
	AskingPrice     int
	Valuation       *models.Valuation // from comparables; nil when none found
	MarketValue     int
	Source          string
	ComparablesText string
}

// Pipeline runs the strategy chain over listings
type Pipeline struct {
	strategies []Strategy
	aggregator *comparables.Aggregator
	estimator  *vehicle.Estimator
}

// NewPipeline builds the evaluation pipeline. Strategies run in order;
// the last one should be the heuristic so evaluation always succeeds.
func NewPipeline(aggregator *comparables.Aggregator, estimator *vehicle.Estimator, strategies ...Strategy) *Pipeline {
	return &Pipeline{
		strategies: strategies,
		aggregator: aggregator,
		estimator:  estimator,
	}
}

// DefaultPipeline wires the standard anthropic -> ollama -> heuristic
// chain
func DefaultPipeline(aggregator *comparables.Aggregator, estimator *vehicle.Estimator) *Pipeline {
	return NewPipeline(aggregator, estimator,
		NewAnthropicStrategy(),
		NewOllamaStrategy(""),
		NewHeuristicStrategy(estimator),
	)
}

// Evaluate scores one listing. The vehicle context (extraction,
// condition, comparable valuation) is computed once and handed to each
// strategy; whichever strategy produces the scores, the comparable
// listings text is appended to the notes afterwards.
func (p *Pipeline) Evaluate(listing models.Listing) *models.Evaluation {
	fmt.Printf("📋 Evaluating: %s\n", listing.Title)

	vctx := p.buildVehicleContext(listing)

	for _, strategy := range p.strategies {
		result, err := strategy.Evaluate(listing, vctx)
		if err != nil {
			log.Printf("%s evaluation failed: %v", strategy.Name(), err)
			continue
		}
		if result == nil {
			continue
		}

		result.Method = strategy.Name()
		fmt.Printf("   ✅ %s: Flip=%d Weird=%d Scam=%d\n",
			strategy.Name(), result.FlipScore, result.WeirdnessScore, result.ScamLikelihood)

		if vctx != nil && vctx.ComparablesText != "" {
			result.Notes += vctx.ComparablesText
		}
		return result
	}

	// Unreachable with the heuristic strategy in the chain
	return &models.Evaluation{FlipScore: 3, WeirdnessScore: 3, ScamLikelihood: 3, Notes: "Standard listing", Method: "none"}
}

// buildVehicleContext extracts vehicle attributes and resolves a
// comparable-based valuation for priced (> $500) vehicle listings.
// Returns nil for everything else.
func (p *Pipeline) buildVehicleContext(listing models.Listing) *VehicleContext {
	price := ParsePrice(listing.Price)
	info := vehicle.ExtractVehicleInfo(listing.Title, listing.Description)
	if !info.IsVehicle || price <= 500 {
		return nil
	}

	fmt.Printf("   🚗 Vehicle detected: %d %s %s\n", info.Year, info.Make, info.Model)

	condition := vehicle.DetectCondition(listing.Title, listing.Description)
	if condition.HasMajorIssues {
		fmt.Printf("   ⚠️  Condition issues: %s\n", joinIssues(condition.Issues))
	}

	vctx := &VehicleContext{
		Info:        info,
		Condition:   condition,
		AskingPrice: price,
	}

	if p.aggregator == nil || info.Year == 0 || info.Make == "" {
		return vctx
	}

	set, err := p.aggregator.GetComparables(info.Year, info.Make, info.Model)
	if err != nil {
		log.Printf("comparable pricing: %v", err)
	}
	if set == nil {
		return vctx
	}

	valuation := p.estimator.EstimateFromComparables(set, price, condition)
	if valuation == nil {
		return vctx
	}

	vctx.Valuation = valuation
	vctx.MarketValue = valuation.EstimatedValue
	vctx.Source = fmt.Sprintf("%d comparables", set.Count)
	vctx.ComparablesText = formatComparables(set.Listings)

	fmt.Printf("   💰 Market: $%s | Asking: $%s (%d%%)\n",
		formatDollars(vctx.MarketValue), formatDollars(price), valuation.PercentOfValue)

	return vctx
}

// formatComparables renders the retained comparable listings as
// clickable note lines, capped at twelve entries
func formatComparables(listings []models.ComparableListing) string {
	if len(listings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nComparables found:")

	shown := listings
	if len(shown) > 12 {
		shown = shown[:12]
	}
	for i, l := range shown {
		desc := l.Description
		if desc == "" && len(l.Text) > 0 {
			desc = l.Text
			if len(desc) > 60 {
				desc = desc[:60]
			}
		}

		var parts []string
		if desc != "" {
			parts = append(parts, desc)
		}
		if l.Location != "" {
			parts = append(parts, l.Location)
		}
		if l.Mileage != "" {
			parts = append(parts, l.Mileage)
		}
		details := strings.Join(parts, " · ")

		if l.URL != "" {
			fmt.Fprintf(&b, "\n%d. <a href=\"%s\" target=\"_blank\" style=\"color: #4a9eff; text-decoration: none;\">$%s</a> - %s",
				i+1, l.URL, formatDollars(l.Price), details)
		} else {
			fmt.Fprintf(&b, "\n%d. $%s - %s", i+1, formatDollars(l.Price), details)
		}
	}
	if len(listings) > 12 {
		fmt.Fprintf(&b, "\n...and %d more", len(listings)-12)
	}
	return b.String()
}

// ParsePrice extracts an integer price from a display string by
// dropping every non-digit character. Strings with no digits parse
// to 0.
func ParsePrice(price string) int {
	n := 0
	found := false
	for _, r := range price {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			found = true
		}
	}
	if !found {
		return 0
	}
	return n
}

func formatDollars(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func joinIssues(issues []models.IssueTag) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = string(issue)
	}
	return strings.Join(parts, ", ")
}
