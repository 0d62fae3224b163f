package review

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func wellFormedCritique() Critique {
	return Critique{
		Scores: map[string]float64{
			"clarity": 8, "problem": 7, "solution": 8,
			"uniqueness": 7, "traction": 9, "engagement": 8,
		},
		OverallScore: 7.8,
		Decision:     DecisionPass,
		Feedback:     "Strong traction section, weak hook.",
		Strengths:    []string{"traction", "clarity"},
		Weaknesses:   []string{"hook"},
	}
}

func TestParseCritique_RoundTrip(t *testing.T) {
	want := wellFormedCritique()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, ok := ParseCritique(string(data), 7.5)
	if !ok {
		t.Fatal("expected parse success")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParseCritique_FencedPayload(t *testing.T) {
	payload := `The critique follows.

` + "```json" + `
{"scores": {"clarity": 6}, "overall_score": 6.0, "decision": "FAIL", "feedback": "unclear"}
` + "```" + `
Hope this helps!`

	got, ok := ParseCritique(payload, 7.5)
	if !ok {
		t.Fatal("expected parse success for fenced payload")
	}
	if got.Decision != DecisionFail || got.OverallScore != 6.0 {
		t.Errorf("unexpected critique: %+v", got)
	}
}

func TestParseCritique_LeadingTagLine(t *testing.T) {
	payload := "json\n{\"overall_score\": 8.0, \"decision\": \"PASS\", \"feedback\": \"good\"}"

	got, ok := ParseCritique(payload, 7.5)
	if !ok {
		t.Fatal("expected parse success")
	}
	if !got.Passed() {
		t.Errorf("expected PASS, got %+v", got)
	}
}

func TestParseCritique_DecisionNormalization(t *testing.T) {
	tests := []struct {
		name     string
		decision string
		overall  float64
		want     string
	}{
		{"lowercase pass", "pass", 6.0, DecisionPass},
		{"padded fail", " FAIL ", 9.0, DecisionFail},
		{"junk above threshold", "PASS or FAIL", 8.0, DecisionPass},
		{"junk below threshold", "maybe", 5.0, DecisionFail},
		{"empty at threshold", "", 7.5, DecisionPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"overall_score": ` + jsonFloat(tt.overall) + `, "decision": "` + tt.decision + `", "feedback": "x"}`
			got, ok := ParseCritique(raw, 7.5)
			if !ok {
				t.Fatal("expected parse success")
			}
			if got.Decision != tt.want {
				t.Errorf("decision = %q, want %q", got.Decision, tt.want)
			}
		})
	}
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestParseCritique_MalformedNeverRaises(t *testing.T) {
	inputs := []string{
		"",
		"I cannot critique this pitch.",
		"{broken json",
		"```json\nnot json at all\n```",
		strings.Repeat("x", 5000),
	}

	for _, raw := range inputs {
		got, ok := ParseCritique(raw, 7.5)
		if ok {
			t.Errorf("expected fallback for %q", truncate(raw, 40))
		}
		if got.Decision != DecisionFail {
			t.Errorf("fallback decision = %q, want FAIL", got.Decision)
		}
		if got.OverallScore != FallbackScore {
			t.Errorf("fallback score = %v, want %v", got.OverallScore, FallbackScore)
		}
		if got.Scores == nil {
			t.Error("fallback must have a valid-shaped scores map")
		}
		if len(got.Feedback) > fallbackFeedbackLen+len("Could not parse critique. Raw response: ") {
			t.Errorf("fallback feedback not truncated: %d chars", len(got.Feedback))
		}
	}
}

func TestParseCritique_FallbackFeedbackKeepsValidUTF8(t *testing.T) {
	raw := strings.Repeat("é", fallbackFeedbackLen+50)

	got, ok := ParseCritique(raw, 7.5)
	if ok {
		t.Fatal("expected fallback for non-JSON input")
	}
	if !utf8.ValidString(got.Feedback) {
		t.Errorf("fallback feedback contains invalid UTF-8: %q", got.Feedback)
	}
	if n := utf8.RuneCountInString(got.Feedback); n > fallbackFeedbackLen+utf8.RuneCountInString("Could not parse critique. Raw response: ") {
		t.Errorf("fallback feedback not truncated: %d runes", n)
	}
}

func TestParseFinalPackage_RoundTrip(t *testing.T) {
	want := FinalPackage{
		ElevatorPitch:          "We summarize papers in seconds.",
		ExecutiveSummary:       "Full summary.",
		ProblemStatement:       "Too many PDFs.",
		Solution:               "A Chrome extension.",
		UniqueValueProposition: "Figures explained too.",
		TractionMetrics:        TractionMetrics{Users: "2000", OtherMetrics: []string{"15 universities"}},
		MarketOpportunity:      MarketOpportunity{TAM: "$1B", TargetSegment: "grad students"},
		BusinessModel:          BusinessModel{RevenueStreams: []string{"subscriptions"}, Pricing: "$5/mo"},
		CompetitiveAdvantage:   []string{"speed", "figure extraction"},
		FundingAsk:             FundingAsk{Amount: "$500k", UseOfFunds: map[string]string{"eng": "60%"}},
		KeyTalkingPoints:       []string{"traction"},
		AnticipatedQuestions:   []QA{{Question: "Moat?", Answer: "Data."}},
		DeliveryTips:           DeliveryTips{Tone: "confident", EmphasisPoints: []string{"traction"}},
	}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, ok := ParseFinalPackage(string(data), "pitch")
	if !ok {
		t.Fatal("expected parse success")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParseFinalPackage_FallbackCarriesPitch(t *testing.T) {
	pitch := "We summarize academic papers in seconds."

	got, ok := ParseFinalPackage("sorry, no JSON today", pitch)
	if ok {
		t.Fatal("expected fallback")
	}
	if got.RawPitch != pitch {
		t.Errorf("expected raw pitch preserved, got %q", got.RawPitch)
	}
	if got.ExecutiveSummary != pitch {
		t.Errorf("expected pitch as executive summary, got %q", got.ExecutiveSummary)
	}
	if got.ElevatorPitch == "" {
		t.Error("expected non-empty elevator pitch in fallback")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around", `Sure! {"a":1} Done.`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence no tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no object", "nothing here", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
