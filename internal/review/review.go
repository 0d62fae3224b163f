// Package review defines the structured records extracted from critic and
// packaging model output, together with a parser that tolerates the
// formatting noise LLMs wrap around JSON payloads.
package review

// Decision values for a critique verdict.
const (
	DecisionPass = "PASS"
	DecisionFail = "FAIL"
)

// FallbackScore is the overall score assigned when a critique cannot be
// parsed. It sits below any sane pass threshold so a degraded parse always
// routes back through refinement or escalation, never a silent pass.
const FallbackScore = 5.0

// Critique is the critic's structured verdict on a pitch.
type Critique struct {
	Scores       map[string]float64 `json:"scores"`
	OverallScore float64            `json:"overall_score"`
	Decision     string             `json:"decision"`
	Feedback     string             `json:"feedback"`
	Strengths    []string           `json:"strengths,omitempty"`
	Weaknesses   []string           `json:"weaknesses,omitempty"`
}

// Passed reports whether the critic decision is PASS.
func (c Critique) Passed() bool { return c.Decision == DecisionPass }

// TractionMetrics summarises evidence the product works.
type TractionMetrics struct {
	Users        string   `json:"users,omitempty"`
	Revenue      string   `json:"revenue,omitempty"`
	Growth       string   `json:"growth,omitempty"`
	OtherMetrics []string `json:"other_metrics,omitempty"`
}

// MarketOpportunity sizes the addressable market.
type MarketOpportunity struct {
	TAM           string `json:"tam,omitempty"`
	SAM           string `json:"sam,omitempty"`
	TargetSegment string `json:"target_segment,omitempty"`
}

// BusinessModel describes how the product makes money.
type BusinessModel struct {
	RevenueStreams []string `json:"revenue_streams,omitempty"`
	Pricing        string   `json:"pricing,omitempty"`
	UnitEconomics  string   `json:"unit_economics,omitempty"`
}

// FundingAsk is the raise being requested.
type FundingAsk struct {
	Amount     string            `json:"amount,omitempty"`
	UseOfFunds map[string]string `json:"use_of_funds,omitempty"`
	Milestones []string          `json:"milestones,omitempty"`
}

// QA pairs an anticipated investor question with a suggested answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DeliveryTips carries presentation guidance.
type DeliveryTips struct {
	Tone           string   `json:"tone,omitempty"`
	Pacing         string   `json:"pacing,omitempty"`
	EmphasisPoints []string `json:"emphasis_points,omitempty"`
}

// FinalPackage is the terminal deliverable produced after approval.
type FinalPackage struct {
	ElevatorPitch          string            `json:"elevator_pitch"`
	ExecutiveSummary       string            `json:"executive_summary"`
	ProblemStatement       string            `json:"problem_statement"`
	Solution               string            `json:"solution"`
	UniqueValueProposition string            `json:"unique_value_proposition"`
	TractionMetrics        TractionMetrics   `json:"traction_metrics"`
	MarketOpportunity      MarketOpportunity `json:"market_opportunity"`
	BusinessModel          BusinessModel     `json:"business_model"`
	CompetitiveAdvantage   []string          `json:"competitive_advantage,omitempty"`
	TeamHighlights         string            `json:"team_highlights,omitempty"`
	FundingAsk             FundingAsk        `json:"funding_ask"`
	KeyTalkingPoints       []string          `json:"key_talking_points,omitempty"`
	AnticipatedQuestions   []QA              `json:"anticipated_questions,omitempty"`
	DeliveryTips           DeliveryTips      `json:"delivery_tips"`
	// RawPitch preserves the approved pitch text when the package JSON
	// could not be parsed.
	RawPitch string `json:"raw_pitch,omitempty"`
}
