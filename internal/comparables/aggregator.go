// Package comparables builds market-value price sets from scraped
// comparable listings and caches them forever, accumulating a pricing
// book over time.
package comparables

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"marketscout/internal/models"
)

// Candidate is a raw search-result entry before price extraction and
// vehicle classification
type Candidate struct {
	Text string
	URL  string
}

// Store is the durable cache for comparable sets, keyed by search key.
// Get returns (nil, nil) on a miss; Put upserts.
type Store interface {
	GetComparables(searchKey string) (*models.ComparableSet, error)
	PutComparables(searchKey string, year int, makeName, model string, set *models.ComparableSet) error
}

// Searcher produces raw candidate listings for a vehicle query. It is
// browser-driven and best-effort; an empty result is normal.
type Searcher interface {
	Search(year int, makeName, model string) ([]Candidate, error)
}

const (
	// Prices outside this band are extraction noise, not real vehicles
	minSanePrice = 500
	maxSanePrice = 150000

	// Two-sided trim applied once we have at least this many samples
	minSamplesForTrim = 5
	trimFraction      = 0.1
)

var (
	pricePattern    = regexp.MustCompile(`\$?([\d,]+)([kK])?`)
	priceStrip      = regexp.MustCompile(`\$[\d,]+`)
	freeStrip       = regexp.MustCompile(`(?i)Free`)
	spaceCollapse   = regexp.MustCompile(`\s+`)
	candYearPattern = regexp.MustCompile(`\b(19\d{2}|20[0-2]\d)\b`)
	locationPattern = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),\s*([A-Z]{2})`)
	mileagePattern  = regexp.MustCompile(`(\d{1,3})[Kk]\s*miles?`)
	vehicleKeywords = regexp.MustCompile(`(?i)\b(sedan|coupe|suv|truck|van|wagon|convertible|hatchback|pickup|4wd|awd|fwd|2wd|v6|v8|4cyl|automatic|manual|transmission|mileage|miles|km)\b`)
	trimWords       = regexp.MustCompile(`(?i)\b(limited|sport|base|premium|lx|ex|sr5|xlt|slt)\b`)
)

// SearchKey computes the normalized cache key for a vehicle query.
// Trim words are stripped from the model so "Tacoma Limited" and
// "Tacoma SR5" share one price book entry.
func SearchKey(year int, makeName, model string) string {
	normalized := strings.ToLower(model)
	normalized = trimWords.ReplaceAllString(normalized, "")
	normalized = strings.TrimSpace(spaceCollapse.ReplaceAllString(normalized, " "))
	return fmt.Sprintf("%d_%s_%s", year, strings.ToLower(makeName), normalized)
}

// ExtractCandidatePrice pulls an asking price out of raw listing text.
// A trailing "k" on the matched number multiplies by 1000. Returns 0
// when no price is present or the value falls outside the sanity band.
func ExtractCandidatePrice(text string) int {
	match := pricePattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}

	price, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	if match[2] != "" {
		price *= 1000
	}

	if price < minSanePrice || price > maxSanePrice {
		return 0
	}
	return price
}

// Aggregator resolves comparable price sets, preferring the cache and
// falling back to a fresh search
type Aggregator struct {
	store    Store
	searcher Searcher
}

// New creates an aggregator over the given cache store and searcher
func New(store Store, searcher Searcher) *Aggregator {
	return &Aggregator{store: store, searcher: searcher}
}

// GetComparables returns the comparable set for (year, make, model), or
// (nil, nil) when no usable samples exist. Cache entries are returned
// unchanged and never expire; fresh results are written through. A
// write failure is returned alongside the set so the caller can still
// use the data.
func (a *Aggregator) GetComparables(year int, makeName, model string) (*models.ComparableSet, error) {
	key := SearchKey(year, makeName, model)

	cached, err := a.store.GetComparables(key)
	if err != nil {
		return nil, fmt.Errorf("comparable cache lookup failed: %w", err)
	}
	if cached != nil {
		fmt.Printf("   📋 Using cached comparables for %s (%d samples, updated %s)\n",
			key, cached.Count, cached.LastUpdated.Format("2006-01-02"))
		return cached, nil
	}

	if a.searcher == nil {
		return nil, nil
	}

	fmt.Printf("   🔍 Searching comparables: %d %s %s\n", year, makeName, model)
	candidates, err := a.searcher.Search(year, makeName, model)
	if err != nil {
		return nil, fmt.Errorf("comparable search failed: %w", err)
	}

	set := BuildSet(candidates, year, makeName)
	if set == nil {
		log.Printf("no usable comparables for %s", key)
		return nil, nil
	}

	if err := a.store.PutComparables(key, year, makeName, model, set); err != nil {
		return set, fmt.Errorf("failed to persist comparables for %s: %w", key, err)
	}
	fmt.Printf("   💾 Saved comparable data for %s\n", key)
	return set, nil
}

// BuildSet turns raw candidates into an outlier-trimmed ComparableSet.
// Candidates without a sane price or without vehicle-domain keywords
// are dropped (the latter are counted for diagnostics). Returns nil
// when nothing usable remains - distinct from a zero price.
func BuildSet(candidates []Candidate, year int, makeName string) *models.ComparableSet {
	var listings []models.ComparableListing
	rejected := 0

	for _, cand := range candidates {
		price := ExtractCandidatePrice(cand.Text)
		if price == 0 {
			continue
		}

		clean := cleanCandidateText(cand.Text)
		if !vehicleKeywords.MatchString(clean) {
			rejected++
			continue
		}

		listings = append(listings, buildListing(clean, price, cand.URL, year, makeName))
	}

	if rejected > 0 {
		log.Printf("filtered %d non-vehicle candidates", rejected)
	}

	prices := dedupeSorted(listings)
	if len(prices) == 0 {
		return nil
	}

	trimmed := trimOutliers(prices)

	retained := make(map[int]bool, len(trimmed))
	for _, p := range trimmed {
		retained[p] = true
	}
	var kept []models.ComparableListing
	for _, l := range listings {
		if retained[l.Price] {
			kept = append(kept, l)
		}
	}

	sum := 0
	for _, p := range trimmed {
		sum += p
	}

	return &models.ComparableSet{
		Prices: trimmed,
		// Upper-middle element for even counts, by design
		Median:   trimmed[len(trimmed)/2],
		Average:  int(math.Round(float64(sum) / float64(len(trimmed)))),
		Min:      trimmed[0],
		Max:      trimmed[len(trimmed)-1],
		Count:    len(trimmed),
		Listings: kept,
	}
}

func cleanCandidateText(text string) string {
	clean := priceStrip.ReplaceAllString(text, "")
	clean = freeStrip.ReplaceAllString(clean, "")
	return strings.TrimSpace(spaceCollapse.ReplaceAllString(clean, " "))
}

func buildListing(clean string, price int, url string, year int, makeName string) models.ComparableListing {
	listing := models.ComparableListing{
		Price:       price,
		Text:        clean,
		Description: clean,
		URL:         url,
	}

	if match := candYearPattern.FindString(clean); match != "" {
		listing.Year = match
	}
	if match := mileagePattern.FindStringSubmatch(clean); match != nil {
		listing.Mileage = match[1] + "k mi"
	}
	if match := locationPattern.FindString(clean); match != "" {
		listing.Location = match
		// Description is usually the part before the location
		if idx := strings.Index(clean, match); idx > 0 {
			listing.Description = strings.TrimSpace(clean[:idx])
		}
	}
	if len(listing.Description) > 100 {
		listing.Description = listing.Description[:100]
	}

	lower := strings.ToLower(clean)
	hasYear := strings.Contains(lower, strconv.Itoa(year)) ||
		strings.Contains(lower, strconv.Itoa(year-1)) ||
		strings.Contains(lower, strconv.Itoa(year+1))
	listing.Matched = hasYear && strings.Contains(lower, strings.ToLower(makeName))

	return listing
}

// dedupeSorted collapses prices to a unique, ascending sequence
func dedupeSorted(listings []models.ComparableListing) []int {
	seen := make(map[int]bool, len(listings))
	var prices []int
	for _, l := range listings {
		if !seen[l.Price] {
			seen[l.Price] = true
			prices = append(prices, l.Price)
		}
	}
	sort.Ints(prices)
	return prices
}

// trimOutliers drops the bottom and top 10% (floor-rounded by count) of
// the sorted prices once there are at least five samples, removing
// typo extremes before statistics are computed
func trimOutliers(prices []int) []int {
	if len(prices) < minSamplesForTrim {
		return prices
	}
	trim := int(float64(len(prices)) * trimFraction)
	if trim == 0 {
		return prices
	}
	return prices[trim : len(prices)-trim]
}
