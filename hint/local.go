package hint

import (
	"context"
	"math/rand/v2"

	"github.com/lixenwraith/reel-cortex/symbol"
)

// insights is the offline table used when the generative API is slow, failing or unconfigured
var insights = []Hint{
	{Message: "SID-SYNC ESTABLISHED", Rationale: "Sid's mentorship has successfully aligned the team's technical architecture with long-term strategic goals.", WinTier: "Elite Navigator"},
	{Message: "COACHING FLOW ACTIVE", Rationale: "Through dedicated knowledge sharing, Sid has expanded the team's collective capacity to solve complex challenges.", WinTier: "Culture Catalyst"},
	{Message: "ELITE DATA ARCHITECTURE", Rationale: "The legacy of Sid's work is a robust and scalable data environment that continues to power team innovations.", WinTier: "System Architect"},
	{Message: "SID-TASTIC SUCCESS", Rationale: "The BI team has reached a state of pure efficiency. Sid's guidance is visible in every dashboard.", WinTier: "Data Deity"},
	{Message: "TEAM VIBE OVERLOAD", Rationale: "Sid doesn't just build data, he builds people. The team morale is at an all-time high.", WinTier: "Vibe Master"},
}

// InsightSymbol is attached to every local hint
func InsightSymbol() symbol.Symbol {
	return symbol.Symbol{ID: "INSIGHT_NODE", Label: "ELITE NODE", Icon: "⚡", Color: "#00f2ff"}
}

// LocalResolver picks a random insight from the offline table
type LocalResolver struct {
	pick func(n int) int
}

// NewLocalResolver creates a resolver over the offline table; pick defaults to math/rand
func NewLocalResolver(pick func(n int) int) *LocalResolver {
	if pick == nil {
		pick = rand.IntN
	}
	return &LocalResolver{pick: pick}
}

// Resolve never fails
func (l *LocalResolver) Resolve(_ context.Context, _ Request) (Result, error) {
	h := insights[l.pick(len(insights))]
	s := InsightSymbol()
	h.NewSymbol = &s
	return Result{Hint: h, Source: SourceLocal}, nil
}

// Insights returns a copy of the offline table
func Insights() []Hint {
	out := make([]Hint, len(insights))
	copy(out, insights)
	return out
}
