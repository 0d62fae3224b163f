package review

import (
	"encoding/json"
	"strings"
)

const fallbackFeedbackLen = 200

// ParseCritique extracts a Critique from raw model output. It strips code
// fences and surrounding prose before unmarshalling. On any failure it
// returns a sentinel critique (low score, FAIL, truncated raw text as
// feedback) so the caller can route normally; the boolean reports whether
// real JSON was recovered, for logging only.
func ParseCritique(raw string, passThreshold float64) (Critique, bool) {
	payload := extractJSON(raw)

	var c Critique
	if payload == "" || json.Unmarshal([]byte(payload), &c) != nil {
		return fallbackCritique(raw), false
	}

	c.Decision = normalizeDecision(c.Decision, c.OverallScore, passThreshold)
	if c.Scores == nil {
		c.Scores = map[string]float64{}
	}
	return c, true
}

// ParseFinalPackage extracts a FinalPackage from raw model output. On
// failure it returns a sentinel package carrying the approved pitch text so
// downstream consumers always have usable content.
func ParseFinalPackage(raw, approvedPitch string) (FinalPackage, bool) {
	payload := extractJSON(raw)

	var p FinalPackage
	if payload == "" || json.Unmarshal([]byte(payload), &p) != nil {
		return fallbackPackage(approvedPitch), false
	}
	return p, true
}

func fallbackCritique(raw string) Critique {
	return Critique{
		Scores:       map[string]float64{},
		OverallScore: FallbackScore,
		Decision:     DecisionFail,
		Feedback:     "Could not parse critique. Raw response: " + truncate(raw, fallbackFeedbackLen),
		Weaknesses:   []string{"Needs improvement"},
	}
}

func fallbackPackage(pitch string) FinalPackage {
	return FinalPackage{
		ElevatorPitch:          truncate(pitch, 200),
		ExecutiveSummary:       pitch,
		ProblemStatement:       "See full pitch content",
		Solution:               "See full pitch content",
		UniqueValueProposition: "See full pitch content",
		RawPitch:               pitch,
	}
}

// normalizeDecision maps whatever the model wrote in the decision field to
// PASS or FAIL, deriving from the overall score when the field is unusable.
func normalizeDecision(decision string, overall, passThreshold float64) string {
	switch d := strings.ToUpper(strings.TrimSpace(decision)); d {
	case DecisionPass, DecisionFail:
		return d
	}
	if overall >= passThreshold {
		return DecisionPass
	}
	return DecisionFail
}

// extractJSON pulls the first JSON object out of free-form text. It handles
// a ```json fenced block, a bare leading "json" tag line, and prose before
// or after the payload. Returns "" when no object is present.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// truncate is rune-aware so it never splits a multibyte character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
