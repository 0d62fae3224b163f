package workflow

import (
	"fmt"
	"strings"

	"github.com/vardan201/pitchagent/internal/review"
)

const contextSystemPrompt = `You are a startup research expert. Analyze the MVP description and search results to provide comprehensive context for creating a compelling pitch.

Provide context including:
- Key market insights from the search results
- Competitive landscape understanding
- Target audience identification
- Recommended pitch approach
- Key value propositions to emphasize`

const draftSystemPrompt = `You are an expert pitch writer. Create a compelling, concise pitch (150-250 words) that:
- Clearly articulates the problem and solution
- Highlights unique value proposition
- Includes specific, measurable outcomes
- Is engaging and memorable

Be specific, avoid jargon, and focus on impact.`

const refineSystemPrompt = `You are a pitch refinement expert.

Take the original pitch and the critique, then create an improved version that:
- Addresses all weaknesses mentioned
- Maintains the strengths
- Incorporates the feedback precisely
- Stays concise and impactful

Make substantial improvements, don't just tweak words.`

// criticSystemPrompt pins the critique output to the JSON schema that
// review.ParseCritique expects.
func criticSystemPrompt(passThreshold float64) string {
	return fmt.Sprintf(`You are a tough but fair pitch critic (think YC partner or top VC).

Evaluate the pitch on 6 criteria (each out of 10):
1. CLARITY: Is it immediately clear what they do?
2. PROBLEM: Is the problem compelling and relatable?
3. SOLUTION: Is the solution clearly explained?
4. UNIQUENESS: What makes this different/better?
5. TRACTION: Any proof it works?
6. ENGAGEMENT: Is it memorable and compelling?

Return ONLY valid JSON (no markdown, no backticks):
{
    "scores": {"clarity": X, "problem": X, "solution": X, "uniqueness": X, "traction": X, "engagement": X},
    "overall_score": X.X,
    "decision": "PASS" or "FAIL",
    "feedback": "detailed feedback",
    "strengths": ["strength 1", "strength 2"],
    "weaknesses": ["weakness 1", "weakness 2"]
}

PASS if overall_score >= %.1f, otherwise FAIL.`, passThreshold)
}

const packageSystemPrompt = `You are a pitch coach preparing the final deliverable. Create a comprehensive final pitch package. Return ONLY valid JSON (no markdown, no backticks) with this structure:

{
  "elevator_pitch": "One sentence pitch (30-40 words)",
  "executive_summary": "2-3 paragraph overview",
  "problem_statement": "Clear description of the problem",
  "solution": "How your product solves it",
  "unique_value_proposition": "What makes you different",
  "traction_metrics": {"users": "number", "revenue": "amount", "growth": "percentage", "other_metrics": ["metric1"]},
  "market_opportunity": {"tam": "Total addressable market", "sam": "Serviceable addressable market", "target_segment": "Who you're targeting"},
  "business_model": {"revenue_streams": ["stream1"], "pricing": "pricing strategy", "unit_economics": "CAC, LTV, margins"},
  "competitive_advantage": ["advantage1", "advantage2"],
  "team_highlights": "Brief team credentials",
  "funding_ask": {"amount": "how much", "use_of_funds": {"category": "percentage"}, "milestones": ["milestone1"]},
  "key_talking_points": ["point1", "point2"],
  "anticipated_questions": [{"question": "question text", "answer": "concise answer"}],
  "delivery_tips": {"tone": "recommended tone", "pacing": "timing guidance", "emphasis_points": ["what to emphasize"]}
}`

func buildContextUserPrompt(mvpDescription, searchResults, template string) string {
	return fmt.Sprintf(`MVP Description: %s

Market Research Results:
%s

Pitch Template to Follow:
%s

Based on this information, provide comprehensive context for creating a compelling pitch.`, mvpDescription, searchResults, template)
}

func buildDraftUserPrompt(mvpDescription, context string) string {
	return fmt.Sprintf("MVP Description: %s\n\nResearch Context: %s\n\nGenerate a compelling pitch.", mvpDescription, context)
}

func buildCriticUserPrompt(pitch string) string {
	return "Critique this pitch:\n\n" + pitch
}

func buildRefineUserPrompt(pitch string, critique review.Critique, humanFeedback string) string {
	var sb strings.Builder
	sb.WriteString("Original Pitch:\n")
	sb.WriteString(pitch)
	sb.WriteString("\n\nCritique Feedback:\n")
	sb.WriteString(critique.Feedback)
	if len(critique.Weaknesses) > 0 {
		sb.WriteString("\n\nWeaknesses to address:\n")
		sb.WriteString(strings.Join(critique.Weaknesses, ", "))
	}
	if humanFeedback != "" {
		sb.WriteString("\n\nUser Feedback: ")
		sb.WriteString(humanFeedback)
	}
	sb.WriteString("\n\nCreate a substantially improved version.")
	return sb.String()
}

func buildPackageUserPrompt(pitch, humanFeedback string) string {
	return fmt.Sprintf("Approved Pitch:\n%s\n\nUser Notes: %s\n\nCreate the structured final pitch package in JSON format.", pitch, humanFeedback)
}
