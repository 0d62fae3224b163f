// Package pitchtmpl holds proven pitch structure templates embedded in the
// context-gathering prompt.
package pitchtmpl

var templates = map[string]string{
	"elevator": `ELEVATOR PITCH TEMPLATE:
1. Hook (1 sentence): Grab attention with the problem
2. Solution (1-2 sentences): What you built
3. Unique Value (1 sentence): Why you're different
4. Traction (1 sentence): Evidence it works
5. Ask (1 sentence): What you need`,

	"investor": `INVESTOR PITCH TEMPLATE:
1. Problem: What pain point exists?
2. Solution: Your product/MVP
3. Market Size: TAM/SAM/SOM
4. Business Model: How you make money
5. Traction: Metrics, users, revenue
6. Competition: Landscape and differentiation
7. Team: Why you'll win
8. Ask: Funding amount and use`,

	"demo_day": `DEMO DAY PITCH TEMPLATE:
1. Opening Hook: Surprising stat or story
2. Problem: Relatable pain point
3. Solution Demo: Show the product
4. Market Opportunity: Size and timing
5. Traction: Key metrics
6. Vision: Where you're headed
7. Team: Quick credibility
8. The Ask: Clear and specific`,
}

// Lookup returns the template for kind; unknown kinds fall back to the
// elevator template. It never fails.
func Lookup(kind string) string {
	if t, ok := templates[kind]; ok {
		return t
	}
	return templates["elevator"]
}

// Kinds lists the available template kinds.
func Kinds() []string {
	return []string{"elevator", "investor", "demo_day"}
}
