package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

var (
	makeModelPattern = regexp.MustCompile(`^[a-zA-Z0-9 ._-]+$`)
	itemIDPattern    = regexp.MustCompile(`^[0-9]{6,20}$`)
)

// ValidateYear validates a model-year path parameter
func ValidateYear(yearStr string) (int, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, fmt.Errorf("year must be a number")
	}

	if year < 1900 || year > 2029 {
		return 0, fmt.Errorf("year must be between 1900 and 2029")
	}

	return year, nil
}

// ValidateMake validates a vehicle make path parameter
func ValidateMake(makeName string) error {
	if len(makeName) < 2 || len(makeName) > 30 {
		return fmt.Errorf("make must be between 2 and 30 characters")
	}

	if !makeModelPattern.MatchString(makeName) {
		return fmt.Errorf("make contains invalid characters")
	}

	return nil
}

// ValidateModel validates a vehicle model path parameter
func ValidateModel(model string) error {
	if len(model) < 1 || len(model) > 50 {
		return fmt.Errorf("model must be between 1 and 50 characters")
	}

	if !makeModelPattern.MatchString(model) {
		return fmt.Errorf("model contains invalid characters")
	}

	return nil
}

// ValidateItemID validates a marketplace item ID (numeric, as embedded
// in listing URLs)
func ValidateItemID(itemID string) error {
	if !itemIDPattern.MatchString(itemID) {
		return fmt.Errorf("item ID must be 6 to 20 digits")
	}

	return nil
}

// ValidateListingURL validates a listing URL submitted for evaluation
func ValidateListingURL(rawURL string) error {
	if len(rawURL) < 10 || len(rawURL) > 500 {
		return fmt.Errorf("listing URL must be between 10 and 500 characters")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("listing URL is not a valid URL")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("listing URL must use http or https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("listing URL must include a host")
	}

	return nil
}

// SanitizeTitle normalizes whitespace and strips HTML/XSS characters
// from a listing title
func SanitizeTitle(title string) (string, error) {
	title = regexp.MustCompile(`\s+`).ReplaceAllString(title, " ")     // Normalize whitespace
	title = regexp.MustCompile(`[<>\"'&]`).ReplaceAllString(title, "") // Remove HTML/XSS chars

	if len(title) < 1 || len(title) > 300 {
		return "", fmt.Errorf("title must be between 1 and 300 characters")
	}

	return title, nil
}
