package evaluator

import (
	"encoding/json"

	"marketscout/internal/models"
)

// scorePayload mirrors the JSON object the generation backends are
// asked to produce. Pointer fields distinguish missing from zero.
type scorePayload struct {
	FlipScore      *float64 `json:"flip_score"`
	WeirdnessScore *float64 `json:"weirdness_score"`
	ScamLikelihood *float64 `json:"scam_likelihood"`
	Notes          string   `json:"notes"`
}

// parseScores extracts the first balanced JSON object from an LLM reply
// and validates it against the scoring schema. Models wrap replies in
// prose or markdown fences, so the reply is treated as untrusted text.
// Returns nil for anything that doesn't carry all three scores.
func parseScores(reply string) *models.Evaluation {
	raw, ok := extractJSONObject(reply)
	if !ok {
		return nil
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	if payload.FlipScore == nil || payload.WeirdnessScore == nil || payload.ScamLikelihood == nil {
		return nil
	}

	return &models.Evaluation{
		FlipScore:      clampScore(int(*payload.FlipScore)),
		WeirdnessScore: clampScore(int(*payload.WeirdnessScore)),
		ScamLikelihood: clampScore(int(*payload.ScamLikelihood)),
		Notes:          payload.Notes,
	}
}

// extractJSONObject finds the first balanced {...} in s, skipping brace
// characters inside JSON string literals
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// clampScore bounds a score to the 1-10 scale
func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
