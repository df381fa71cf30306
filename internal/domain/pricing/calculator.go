// Package pricing contains model cost rates and cost accounting for completions.
package pricing

import (
	"errors"
	"sync"
)

// ErrModelNotFound is returned when a model is not registered in the calculator.
var ErrModelNotFound = errors.New("model not found in cost calculator")

// Provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// ModelCostRate represents the cost rates for a specific model.
type ModelCostRate struct {
	ModelID    string  // unique identifier for the model
	Provider   string  // provider name
	InputRate  float64 // cost per 1000 input tokens
	OutputRate float64 // cost per 1000 output tokens
	IsLocal    bool    // local models never cost anything
}

// CostCalculator maintains a registry of model cost rates and prices token usage.
type CostCalculator struct {
	mu     sync.RWMutex
	models map[string]*ModelCostRate
}

// NewCostCalculator creates a new CostCalculator with an empty model registry.
func NewCostCalculator() *CostCalculator {
	return &CostCalculator{
		models: make(map[string]*ModelCostRate),
	}
}

// NewDefaultCostCalculator creates a CostCalculator populated with DefaultModelPricing.
func NewDefaultCostCalculator() *CostCalculator {
	calc := NewCostCalculator()
	for _, rate := range DefaultModelPricing() {
		calc.RegisterModelWithProvider(rate.ModelID, rate.Provider, rate.InputRate, rate.OutputRate)
	}
	return calc
}

// RegisterModel registers a model with its cost rates.
// If the model already exists, its rates are updated.
func (c *CostCalculator) RegisterModel(modelID string, inputRate, outputRate float64) {
	c.RegisterModelWithProvider(modelID, "", inputRate, outputRate)
}

// RegisterModelWithProvider registers a model with its provider and cost rates.
func (c *CostCalculator) RegisterModelWithProvider(modelID, provider string, inputRate, outputRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.models[modelID] = &ModelCostRate{
		ModelID:    modelID,
		Provider:   provider,
		InputRate:  inputRate,
		OutputRate: outputRate,
		IsLocal:    provider == ProviderOllama,
	}
}

// GetModelCost retrieves a copy of the cost rates for a model, or nil.
func (c *CostCalculator) GetModelCost(modelID string) *ModelCostRate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rate, exists := c.models[modelID]
	if !exists {
		return nil
	}
	cp := *rate
	return &cp
}

// HasModel checks if a model is registered in the calculator.
func (c *CostCalculator) HasModel(modelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.models[modelID]
	return exists
}

// ModelCount returns the number of registered models.
func (c *CostCalculator) ModelCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Calculate computes the cost breakdown for a model invocation.
// Returns ErrModelNotFound if the model is not registered.
func (c *CostCalculator) Calculate(modelID string, inputTokens, outputTokens int) (*CostBreakdown, error) {
	c.mu.RLock()
	rate, exists := c.models[modelID]
	c.mu.RUnlock()

	if !exists {
		return nil, ErrModelNotFound
	}

	breakdown := &CostBreakdown{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Model:        modelID,
		Provider:     rate.Provider,
	}
	if rate.IsLocal {
		return breakdown, nil
	}

	breakdown.InputCost = (float64(inputTokens) / 1000.0) * rate.InputRate
	breakdown.OutputCost = (float64(outputTokens) / 1000.0) * rate.OutputRate
	breakdown.TotalCost = breakdown.InputCost + breakdown.OutputCost
	return breakdown, nil
}

// CalculateOrZero computes the cost breakdown, returning zero cost if the
// model is unknown so token usage is still tracked.
func (c *CostCalculator) CalculateOrZero(modelID string, inputTokens, outputTokens int) *CostBreakdown {
	breakdown, err := c.Calculate(modelID, inputTokens, outputTokens)
	if err != nil {
		return &CostBreakdown{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Model:        modelID,
		}
	}
	return breakdown
}
