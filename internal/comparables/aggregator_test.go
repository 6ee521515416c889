package comparables

import (
	"errors"
	"fmt"
	"testing"

	"marketscout/internal/models"
)

type fakeStore struct {
	sets map[string]*models.ComparableSet
	puts int
	fail bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sets: make(map[string]*models.ComparableSet)}
}

func (s *fakeStore) GetComparables(searchKey string) (*models.ComparableSet, error) {
	return s.sets[searchKey], nil
}

func (s *fakeStore) PutComparables(searchKey string, year int, makeName, model string, set *models.ComparableSet) error {
	s.puts++
	if s.fail {
		return errors.New("disk full")
	}
	s.sets[searchKey] = set
	return nil
}

type fakeSearcher struct {
	candidates []Candidate
	calls      int
	err        error
}

func (s *fakeSearcher) Search(year int, makeName, model string) ([]Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

func vehicleCandidates(prices ...int) []Candidate {
	var out []Candidate
	for i, p := range prices {
		out = append(out, Candidate{
			Text: fmt.Sprintf("$%d 2015 Toyota Tacoma truck 90k miles Seymour, CT", p),
			URL:  fmt.Sprintf("https://example.com/marketplace/item/%d", i),
		})
	}
	return out
}

func TestSearchKey(t *testing.T) {
	cases := []struct {
		year     int
		makeName string
		model    string
		want     string
	}{
		{2015, "Toyota", "Tacoma", "2015_toyota_tacoma"},
		{2015, "Toyota", "Tacoma Limited", "2015_toyota_tacoma"},
		{2015, "Toyota", "Tacoma SR5", "2015_toyota_tacoma"},
		{2012, "Jeep", "Grand Cherokee", "2012_jeep_grand cherokee"},
	}

	for _, tc := range cases {
		if got := SearchKey(tc.year, tc.makeName, tc.model); got != tc.want {
			t.Errorf("SearchKey(%d, %s, %s) = %q, want %q", tc.year, tc.makeName, tc.model, got, tc.want)
		}
	}
}

func TestExtractCandidatePrice(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"$12,500 2015 Toyota Tacoma", 12500},
		{"$12k nice truck", 12000},
		{"listed at 9500 obo", 9500},
		{"$100 too cheap to be a car", 0},     // below sanity band
		{"$200,000 exotic", 0},                // above sanity band
		{"no digits here", 0},
	}

	for _, tc := range cases {
		if got := ExtractCandidatePrice(tc.text); got != tc.want {
			t.Errorf("ExtractCandidatePrice(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestBuildSetFiltersAndStats(t *testing.T) {
	candidates := []Candidate{
		{Text: "$10,000 2015 Toyota Tacoma truck Seymour, CT"},
		{Text: "$12,000 2015 Toyota Tacoma 4wd Oxford, CT"},
		{Text: "$14,000 2016 Toyota Tacoma automatic"},
		{Text: "$11,000 leather sofa, like new"}, // not a vehicle
		{Text: "no price truck here"},
	}

	set := BuildSet(candidates, 2015, "Toyota")
	if set == nil {
		t.Fatal("expected a set")
	}
	if set.Count != 3 {
		t.Fatalf("Count = %d, want 3", set.Count)
	}
	if set.Min != 10000 || set.Max != 14000 {
		t.Fatalf("range = %d-%d, want 10000-14000", set.Min, set.Max)
	}
	if set.Median != 12000 {
		t.Fatalf("Median = %d, want 12000", set.Median)
	}
	if set.Average != 12000 {
		t.Fatalf("Average = %d, want 12000", set.Average)
	}
	if len(set.Listings) != 3 {
		t.Fatalf("Listings = %d, want 3", len(set.Listings))
	}
}

func TestBuildSetDedupesAndSorts(t *testing.T) {
	set := BuildSet(vehicleCandidates(14000, 10000, 12000, 10000), 2015, "Toyota")
	if set == nil {
		t.Fatal("expected a set")
	}

	want := []int{10000, 12000, 14000}
	if len(set.Prices) != len(want) {
		t.Fatalf("Prices = %v, want %v", set.Prices, want)
	}
	for i, p := range want {
		if set.Prices[i] != p {
			t.Fatalf("Prices = %v, want %v", set.Prices, want)
		}
	}
}

func TestBuildSetEmpty(t *testing.T) {
	if set := BuildSet(nil, 2015, "Toyota"); set != nil {
		t.Fatalf("expected nil set for no candidates, got %+v", set)
	}

	junk := []Candidate{{Text: "mystery box of cables $40"}}
	if set := BuildSet(junk, 2015, "Toyota"); set != nil {
		t.Fatalf("expected nil set for junk candidates, got %+v", set)
	}
}

func TestTrimOutliers(t *testing.T) {
	// Below five samples nothing is trimmed
	small := []int{1000, 2000, 3000, 4000}
	if got := trimOutliers(small); len(got) != 4 {
		t.Fatalf("trimmed below threshold: %v", got)
	}

	// Ten samples lose one from each end
	ten := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := trimOutliers(ten)
	if len(got) != 8 || got[0] != 2 || got[7] != 9 {
		t.Fatalf("trimOutliers(ten) = %v, want 2..9", got)
	}

	// Five to nine samples: floor(0.1*n) == 0, kept intact
	seven := []int{1, 2, 3, 4, 5, 6, 7}
	if got := trimOutliers(seven); len(got) != 7 {
		t.Fatalf("trimOutliers(seven) = %v, want all 7", got)
	}
}

func TestMedianUpperMiddle(t *testing.T) {
	set := BuildSet(vehicleCandidates(8000, 10000, 12000, 14000), 2015, "Toyota")
	if set == nil {
		t.Fatal("expected a set")
	}
	if set.Median != 12000 {
		t.Fatalf("Median = %d, want upper-middle 12000", set.Median)
	}
}

func TestGetComparablesCacheHit(t *testing.T) {
	store := newFakeStore()
	cached := &models.ComparableSet{Prices: []int{9000}, Median: 9000, Count: 1}
	store.sets["2015_toyota_tacoma"] = cached

	searcher := &fakeSearcher{}
	agg := New(store, searcher)

	set, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != cached {
		t.Fatal("expected the cached set returned unchanged")
	}
	if searcher.calls != 0 {
		t.Fatalf("searcher called %d times on a cache hit", searcher.calls)
	}
}

func TestGetComparablesWriteThrough(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{candidates: vehicleCandidates(10000, 12000, 14000)}
	agg := New(store, searcher)

	set, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set == nil || set.Count != 3 {
		t.Fatalf("expected a 3-sample set, got %+v", set)
	}
	if store.puts != 1 {
		t.Fatalf("puts = %d, want 1", store.puts)
	}

	// Second call hits the cache
	again, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again == nil || searcher.calls != 1 {
		t.Fatalf("expected cache hit, searcher calls = %d", searcher.calls)
	}
}

func TestGetComparablesPutFailureStillReturnsSet(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	searcher := &fakeSearcher{candidates: vehicleCandidates(10000, 12000)}
	agg := New(store, searcher)

	set, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err == nil {
		t.Fatal("expected a persistence error")
	}
	if set == nil || set.Count != 2 {
		t.Fatalf("expected the built set alongside the error, got %+v", set)
	}
}

func TestGetComparablesNoResults(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{}
	agg := New(store, searcher)

	set, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != nil {
		t.Fatalf("expected nil set, got %+v", set)
	}
	if store.puts != 0 {
		t.Fatal("nothing should be persisted for an empty result")
	}
}

func TestGetComparablesSearchError(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{err: errors.New("browser crashed")}
	agg := New(store, searcher)

	set, err := agg.GetComparables(2015, "Toyota", "Tacoma")
	if err == nil {
		t.Fatal("expected an error")
	}
	if set != nil {
		t.Fatalf("expected nil set on search failure, got %+v", set)
	}
}
