package pricing

// CostBreakdown represents the cost breakdown for a single model invocation.
type CostBreakdown struct {
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider,omitempty"`
}

// CostSummary aggregates costs across many completions. Spend covers
// completions that were actually paid for; Saved covers cache hits that
// would have cost the same amount had they been re-issued.
type CostSummary struct {
	TotalCost         float64            `json:"total_cost"`
	SavedCost         float64            `json:"saved_cost"`
	TotalInputTokens  int                `json:"total_input_tokens"`
	TotalOutputTokens int                `json:"total_output_tokens"`
	SavedTokens       int                `json:"saved_tokens"`
	ByModel           map[string]float64 `json:"by_model"`
}

// NewCostSummary creates a new empty CostSummary.
func NewCostSummary() *CostSummary {
	return &CostSummary{
		ByModel: make(map[string]float64),
	}
}

// Add records a paid invocation. A nil breakdown is a no-op.
func (s *CostSummary) Add(breakdown *CostBreakdown) {
	if breakdown == nil {
		return
	}

	s.TotalCost += breakdown.TotalCost
	s.TotalInputTokens += breakdown.InputTokens
	s.TotalOutputTokens += breakdown.OutputTokens
	if breakdown.Model != "" {
		s.ByModel[breakdown.Model] += breakdown.TotalCost
	}
}

// AddSaved records a cache hit that avoided the given cost.
func (s *CostSummary) AddSaved(breakdown *CostBreakdown) {
	if breakdown == nil {
		return
	}

	s.SavedCost += breakdown.TotalCost
	s.SavedTokens += breakdown.InputTokens + breakdown.OutputTokens
}

// Clone creates a deep copy of the CostSummary.
func (s *CostSummary) Clone() *CostSummary {
	clone := *s
	clone.ByModel = make(map[string]float64, len(s.ByModel))
	for k, v := range s.ByModel {
		clone.ByModel[k] = v
	}
	return &clone
}
