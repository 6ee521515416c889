package scraper

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"marketscout/internal/comparables"
)

const defaultBaseURL = "https://www.facebook.com"

// MarketplaceScraper searches the marketplace for comparable listings.
// It implements comparables.Searcher.
type MarketplaceScraper struct {
	browser *rod.Browser
	baseURL string
}

// NewMarketplaceScraper creates a new marketplace scraper
func NewMarketplaceScraper() *MarketplaceScraper {
	return &MarketplaceScraper{baseURL: defaultBaseURL}
}

// Close closes the browser connection
func (s *MarketplaceScraper) Close() {
	if s.browser != nil {
		s.browser.MustClose()
		s.browser = nil
	}
}

// initBrowser initializes the browser if not already initialized
func (s *MarketplaceScraper) initBrowser() error {
	if s.browser != nil {
		return nil // Already initialized
	}

	path, _ := launcher.LookPath()
	u, err := launcher.New().
		Bin(path).
		Headless(true).
		Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.browser = browser
	return nil
}

// buildSearchURL builds the marketplace search URL for a vehicle query.
// The /category/search endpoint matches what a manual search produces.
func (s *MarketplaceScraper) buildSearchURL(year int, makeName, model string) string {
	query := fmt.Sprintf("%d %s %s", year, makeName, model)
	return s.baseURL + "/marketplace/category/search?query=" + url.QueryEscape(query)
}

// Search loads the marketplace search results for a vehicle and returns
// the raw text of every item link found. Classification and price
// extraction happen downstream in the aggregator.
func (s *MarketplaceScraper) Search(year int, makeName, model string) (candidates []comparables.Candidate, err error) {
	if err := s.initBrowser(); err != nil {
		return nil, err
	}

	searchURL := s.buildSearchURL(year, makeName, model)
	log.Printf("🔍 Searching comparables: %d %s %s", year, makeName, model)
	log.Printf("🔗 %s", searchURL)

	// Open a fresh stealth page per search and always close it
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search page failed: %v", r)
		}
	}()

	page := stealth.MustPage(s.browser)
	defer page.MustClose()

	page = page.Timeout(30 * time.Second)
	page.MustNavigate(searchURL)
	page.MustWaitLoad()

	// Let the client-side results render
	time.Sleep(3 * time.Second)

	links := page.MustElements(`a[href*="/marketplace/item/"]`)
	log.Printf("🔗 Found %d item links", len(links))

	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}

		// aria-label usually carries the full card text; fall back to
		// the rendered text
		text := ""
		if label, err := link.Attribute("aria-label"); err == nil && label != nil {
			text = *label
		}
		if text == "" {
			text = link.MustText()
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		fullURL := *href
		if !strings.HasPrefix(fullURL, "http") {
			fullURL = s.baseURL + fullURL
		}

		candidates = append(candidates, comparables.Candidate{
			Text: text,
			URL:  fullURL,
		})
	}

	log.Printf("📋 Collected %d candidate listings", len(candidates))
	return candidates, nil
}
