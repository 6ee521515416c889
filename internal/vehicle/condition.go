package vehicle

import (
	"regexp"
	"strings"

	"marketscout/internal/models"
)

type conditionPattern struct {
	tag     models.IssueTag
	pattern *regexp.Regexp
}

// Each pattern is tested independently; tags may co-occur
var conditionPatterns = []conditionPattern{
	{models.IssueTransmission, regexp.MustCompile(`transmission (damage|bad|needs|issue|problem|slipping|gone|out|failed)`)},
	{models.IssueEngine, regexp.MustCompile(`engine (damage|bad|needs|blown|seized|knock|problem|rebuild)`)},
	{models.IssueSalvage, regexp.MustCompile(`salvage|rebuilt title|branded title|flood damage|total loss`)},
	{models.IssueNotRunning, regexp.MustCompile(`not running|doesn't run|won't start|no start|needs work|for parts`)},
	{models.IssueFrameRust, regexp.MustCompile(`frame (damage|rust|rot)|serious rust|rusted (frame|through)`)},
	{models.IssueAsIs, regexp.MustCompile(`as.?is|parts (only|car)`)},
	{models.IssueNeedsRepair, regexp.MustCompile(`needs (major|expensive) (work|repair)`)},
}

// DetectCondition scans listing text for known damage phrases. Absence
// of matches yields an empty, clean report - there is no failure path.
func DetectCondition(title, description string) models.ConditionReport {
	text := strings.ToLower(title + " " + description)

	var detected []models.IssueTag
	for _, cp := range conditionPatterns {
		if cp.pattern.MatchString(text) {
			detected = append(detected, cp.tag)
		}
	}

	return models.ConditionReport{
		Issues:         detected,
		HasMajorIssues: len(detected) > 0,
		Severity:       len(detected),
	}
}
