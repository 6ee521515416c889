package evaluator

import (
	"fmt"
	"strings"

	"marketscout/internal/models"
	"marketscout/internal/vehicle"
)

// evalPrompt is the shared scoring rubric sent to both generation
// backends. The reply must be a bare JSON object.
const evalPrompt = `You are an expert marketplace scout specializing in finding profitable flips, unique items, and avoiding scams.

Score this listing on three metrics (1-10) and provide ACTIONABLE recommendations:

**Flip Potential (1-10):**
- High (8-10): Vintage electronics, test equipment, bulk lots, rare collectibles, estate sales, underpriced branded items, fixable damage
- Medium (4-7): Tools, appliances, furniture, common electronics in good condition
- Low (1-3): Common items at market price, damaged goods that cost more to fix, overpriced items

**Weirdness Score (1-10):**
- High (8-10): Unusual/unique items, vintage tech, oddities, film/darkroom equipment, test gear, niche collectibles
- Medium (4-7): Uncommon but not unique, interesting variations
- Low (1-3): Common everyday items

**Scam Likelihood (1-10):**
- High (8-10): iPhones/MacBooks/PS5/GPUs under market, no location, too good to be true, vague descriptions, "email only"
- Medium (4-7): Suspicious pricing, incomplete info, stock photos only
- Low (1-3): Reasonable prices, detailed descriptions, clear photos, specific condition details

**User Preferences:**
- Location: Seymour, CT (STRONGLY prefer nearby: Naugatuck, Derby, Ansonia, Beacon Falls, Oxford, Waterbury < 10mi)
- Availability: Friday pickups only - BOOST score if near Seymour, LOWER score if far
- Interests: Electronics, film/darkroom gear, test equipment, vintage tech, bulk lots, weird stuff, underpriced vehicles

**Notes Field - Provide ACTIONABLE advice:**
- If high flip potential: Suggest resale platforms (eBay, Craigslist, Facebook), estimated profit, who would buy it
- If vehicle WITH VALUATION DATA: Follow this logic carefully:
  * Already a good deal (< 85% of market): Praise the deal, suggest quick action, inspection checklist only
  * Fair price (85-115% of market): Accept asking price or try 5-10% discount max
  * Overpriced (> 115% of market): Calculate fair offer based on market value, suggest negotiating down
  * NEVER suggest lowballing on something already below market - that's illogical!
- If distance issue: Mention travel time, suggest alternative pickup arrangements
- If potential scam: List specific red flags to verify
- If unique item: Suggest research needed (completed sales, market demand)
- If negotiable: Suggest offer price and negotiation tactics
- If Friday pickup: Note logistics (truck needed, help required, time estimate)

**Output Format (JSON only, no markdown):**
{
  "flip_score": 7,
  "weirdness_score": 9,
  "scam_likelihood": 2,
  "notes": "Specific actionable advice here"
}`

// buildPrompt assembles the full prompt for a listing, including the
// vehicle valuation context block when market data is available
func buildPrompt(listing models.Listing, vctx *VehicleContext) string {
	var b strings.Builder
	b.WriteString(evalPrompt)

	if vctx != nil && vctx.MarketValue > 0 {
		conditionText := "No major issues detected"
		if vctx.Condition.HasMajorIssues {
			conditionText = joinIssues(vctx.Condition.Issues)
		}

		fmt.Fprintf(&b, `

**VEHICLE VALUATION DATA:**
- Asking Price: $%s
- Market Value: $%s (from %s)
- Deal Quality: %s
- Percent of Market: %d%%
- Condition: %s%s

**IMPORTANT:** Use this data for your recommendation. If asking price is already below market (< %d%%), it's a GOOD DEAL - don't suggest lowballing. If asking price is above market (> %d%%), suggest negotiating down to fair value.`,
			formatDollars(vctx.AskingPrice),
			formatDollars(vctx.MarketValue),
			vctx.Source,
			vehicle.DealQuality(vctx.Valuation.PercentOfValue),
			vctx.Valuation.PercentOfValue,
			conditionText,
			vctx.ComparablesText,
			vehicle.GoodDealPercent,
			vehicle.NegotiatePercent,
		)
	}

	description := listing.Description
	if description == "" {
		description = "No description"
	}

	fmt.Fprintf(&b, "\n\n**Listing:**\nTitle: %s\nPrice: %s\nLocation: %s\nDescription: %s",
		listing.Title, listing.Price, listing.Location, description)

	return b.String()
}
