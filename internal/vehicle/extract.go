package vehicle

import (
	"regexp"
	"strings"

	"marketscout/internal/models"
)

// carBrands is checked in order: multi-word and hyphenated brands must
// come before any brand they contain as a substring, otherwise the
// shorter token wins and corrupts the extracted make.
var carBrands = []string{
	"mercedes-benz", "rolls-royce", "land rover", "alfa romeo", "aston martin",
	"toyota", "honda", "ford", "chevy", "chevrolet", "nissan", "subaru",
	"mazda", "hyundai", "kia", "bmw", "mercedes", "audi", "volkswagen",
	"jeep", "dodge", "ram", "gmc", "buick", "cadillac", "lexus", "acura",
	"infiniti", "volvo", "tesla", "mini",
}

var carTypes = []string{
	"sedan", "suv", "truck", "coupe", "convertible", "hatchback", "van",
	"minivan", "wagon", "crossover", "pickup",
}

type popularModel struct {
	model       string
	impliedMake string
}

// popularModels maps well-known bare model names to their make, so
// listings that omit the brand still register as vehicles. Checked in
// order; longer names precede their substrings (grand cherokee before
// cherokee).
var popularModels = []popularModel{
	{"dakota", "Dodge"},
	{"silverado", "Chevrolet"},
	{"f150", "Ford"},
	{"f-150", "Ford"},
	{"f250", "Ford"},
	{"f-250", "Ford"},
	{"f350", "Ford"},
	{"f-350", "Ford"},
	{"ranger", "Ford"},
	{"tacoma", "Toyota"},
	{"tundra", "Toyota"},
	{"camry", "Toyota"},
	{"corolla", "Toyota"},
	{"accord", "Honda"},
	{"civic", "Honda"},
	{"pilot", "Honda"},
	{"outback", "Subaru"},
	{"forester", "Subaru"},
	{"crosstrek", "Subaru"},
	{"impreza", "Subaru"},
	{"wrx", "Subaru"},
	{"wrangler", "Jeep"},
	{"grand cherokee", "Jeep"},
	{"cherokee", "Jeep"},
	{"compass", "Jeep"},
	{"gladiator", "Jeep"},
	{"ram 1500", "RAM"},
	{"ram 2500", "RAM"},
	{"tahoe", "Chevrolet"},
	{"suburban", "Chevrolet"},
	{"colorado", "Chevrolet"},
	{"malibu", "Chevrolet"},
	{"altima", "Nissan"},
	{"sentra", "Nissan"},
	{"frontier", "Nissan"},
	{"titan", "Nissan"},
	{"pathfinder", "Nissan"},
	{"rogue", "Nissan"},
	{"mustang", "Ford"},
	{"explorer", "Ford"},
	{"escape", "Ford"},
	{"expedition", "Ford"},
	{"bronco", "Ford"},
	{"model 3", "Tesla"},
	{"model s", "Tesla"},
	{"model x", "Tesla"},
	{"model y", "Tesla"},
}

var (
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20[0-2]\d)\b`)

	// Tried in order, first match wins
	mileageKPattern     = regexp.MustCompile(`(?i)(\d+)k\s*(miles|mi)?`)
	mileageMilesPattern = regexp.MustCompile(`(?i)([\d,]+)\s*(miles|mi)\b`)
	mileageBarePattern  = regexp.MustCompile(`(?i)(\d{5,6})\s*(miles|mi)?`)

	modelAfterMakePattern = regexp.MustCompile(`(?i)^([a-z0-9\-]+(?:\s+[a-z0-9\-]+)?)`)
	modelStopWords        = regexp.MustCompile(`(?i)\b(sedan|coupe|suv|truck|van|convertible|hatchback|wagon|pickup|4d|2d|lx|ex|se|le|limited|sport|base|premium|xlt|slt|sr5|hybrid|awd|4wd|fwd|rwd|automatic|manual|v6|v8|4cyl|turbo)\b`)
	bareYearPattern       = regexp.MustCompile(`^\d{4}$`)
)

// ExtractVehicleInfo parses listing text into structured vehicle
// attributes. It returns IsVehicle == false when the text doesn't look
// like a vehicle listing at all; individual fields stay zero when they
// can't be parsed. Extraction is best-effort - malformed text never
// produces an error.
func ExtractVehicleInfo(title, description string) models.VehicleInfo {
	text := strings.ToLower(title + " " + description)

	hasCarBrand := false
	for _, brand := range carBrands {
		if strings.Contains(text, brand) {
			hasCarBrand = true
			break
		}
	}

	hasCarType := false
	for _, carType := range carTypes {
		if strings.Contains(text, carType) {
			hasCarType = true
			break
		}
	}

	var detectedModel, detectedMakeFromModel string
	for _, pm := range popularModels {
		if strings.Contains(text, pm.model) {
			detectedModel = pm.model
			detectedMakeFromModel = pm.impliedMake
			break
		}
	}

	if !hasCarBrand && !hasCarType && detectedModel == "" {
		return models.VehicleInfo{}
	}

	info := models.VehicleInfo{IsVehicle: true}

	if match := yearPattern.FindStringSubmatch(text); match != nil {
		info.Year = atoi(match[1])
	}

	info.Mileage = extractMileage(text)

	// Prefer the make implied by a matched popular model, then the first
	// matching brand token
	info.Make = detectedMakeFromModel
	if info.Make == "" {
		for _, brand := range carBrands {
			if strings.Contains(text, brand) {
				info.Make = capitalizeBrand(brand)
				break
			}
		}
	}

	if detectedModel != "" {
		info.Model = upperFirst(detectedModel)
	} else if info.Make != "" {
		info.Model = extractModelFromTitle(title, info.Make)
	}

	return info
}

// extractMileage tries the mileage patterns in order. The x1000
// multiplier applies only when the matched token itself carries the "k"
// suffix.
func extractMileage(text string) int {
	if match := mileageKPattern.FindStringSubmatch(text); match != nil {
		return atoi(match[1]) * 1000
	}
	if match := mileageMilesPattern.FindStringSubmatch(text); match != nil {
		return atoi(strings.ReplaceAll(match[1], ",", ""))
	}
	if match := mileageBarePattern.FindStringSubmatch(text); match != nil {
		return atoi(match[1])
	}
	return 0
}

// extractModelFromTitle takes up to two words following the make in the
// original-case title, strips trim levels, body types and bare years,
// and capitalizes what remains.
func extractModelFromTitle(title, makeName string) string {
	makePos := strings.Index(strings.ToLower(title), strings.ToLower(makeName))
	if makePos < 0 {
		return ""
	}

	afterMake := strings.TrimSpace(title[makePos+len(makeName):])
	match := modelAfterMakePattern.FindStringSubmatch(afterMake)
	if match == nil {
		return ""
	}

	var kept []string
	for _, word := range strings.Fields(strings.TrimSpace(match[1])) {
		if modelStopWords.MatchString(word) || bareYearPattern.MatchString(word) {
			continue
		}
		kept = append(kept, word)
	}

	clean := strings.Join(kept, " ")
	if clean == "" {
		return ""
	}
	return upperFirst(strings.ToLower(clean))
}

// capitalizeBrand capitalizes each sub-word of a brand independently,
// preserving hyphens and spaces ("rolls-royce" -> "Rolls-Royce",
// "land rover" -> "Land Rover")
func capitalizeBrand(brand string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range brand {
		switch {
		case r == '-' || r == ' ':
			b.WriteRune(r)
			upperNext = true
		case upperNext:
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func upperFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
