package pricing

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewDefaultCostCalculator(t *testing.T) {
	calc := NewDefaultCostCalculator()

	if calc.ModelCount() != len(DefaultModelPricing()) {
		t.Errorf("ModelCount = %d, want %d", calc.ModelCount(), len(DefaultModelPricing()))
	}
	if !calc.HasModel("gpt-4-turbo") {
		t.Error("default model gpt-4-turbo should be registered")
	}
}

func TestCalculate(t *testing.T) {
	calc := NewCostCalculator()
	calc.RegisterModelWithProvider("gpt-4-turbo", ProviderOpenAI, 0.01, 0.03)
	calc.RegisterModelWithProvider("llama3.1:8b", ProviderOllama, 0.5, 0.5)

	tests := []struct {
		name      string
		model     string
		in, out   int
		wantTotal float64
		wantErr   error
	}{
		{"cloud model", "gpt-4-turbo", 1000, 2000, 0.07, nil},
		{"zero tokens", "gpt-4-turbo", 0, 0, 0, nil},
		{"local model is free", "llama3.1:8b", 5000, 5000, 0, nil},
		{"unknown model", "nope", 10, 10, 0, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.model, tt.in, tt.out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !almostEqual(got.TotalCost, tt.wantTotal) {
				t.Errorf("TotalCost = %f, want %f", got.TotalCost, tt.wantTotal)
			}
			if got.InputTokens != tt.in || got.OutputTokens != tt.out {
				t.Errorf("tokens = %d/%d, want %d/%d", got.InputTokens, got.OutputTokens, tt.in, tt.out)
			}
		})
	}
}

func TestCalculateOrZero(t *testing.T) {
	calc := NewCostCalculator()

	got := calc.CalculateOrZero("unknown", 10, 20)
	if got.TotalCost != 0 || got.InputTokens != 10 || got.OutputTokens != 20 {
		t.Errorf("unexpected breakdown: %+v", got)
	}
}

func TestGetModelCost_ReturnsCopy(t *testing.T) {
	calc := NewCostCalculator()
	calc.RegisterModel("m", 1, 2)

	rate := calc.GetModelCost("m")
	rate.InputRate = 99

	if calc.GetModelCost("m").InputRate != 1 {
		t.Error("GetModelCost should return a copy")
	}
	if calc.GetModelCost("missing") != nil {
		t.Error("missing model should return nil")
	}
}

func TestCostCalculator_Concurrent(t *testing.T) {
	calc := NewDefaultCostCalculator()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			calc.RegisterModel("dyn", 0.001, 0.002)
			_ = calc.CalculateOrZero("gpt-4o", 100, 100)
		}()
	}
	wg.Wait()

	if !calc.HasModel("dyn") {
		t.Error("dyn should be registered")
	}
}

func TestCostSummary(t *testing.T) {
	s := NewCostSummary()
	s.Add(&CostBreakdown{TotalCost: 0.5, InputTokens: 100, OutputTokens: 50, Model: "gpt-4"})
	s.Add(&CostBreakdown{TotalCost: 0.25, InputTokens: 10, OutputTokens: 5, Model: "gpt-4"})
	s.Add(nil)
	s.AddSaved(&CostBreakdown{TotalCost: 0.5, InputTokens: 100, OutputTokens: 50})
	s.AddSaved(nil)

	if !almostEqual(s.TotalCost, 0.75) {
		t.Errorf("TotalCost = %f, want 0.75", s.TotalCost)
	}
	if !almostEqual(s.SavedCost, 0.5) || s.SavedTokens != 150 {
		t.Errorf("saved = %f/%d, want 0.5/150", s.SavedCost, s.SavedTokens)
	}
	if s.TotalInputTokens != 110 || s.TotalOutputTokens != 55 {
		t.Errorf("tokens = %d/%d", s.TotalInputTokens, s.TotalOutputTokens)
	}

	clone := s.Clone()
	clone.ByModel["gpt-4"] = 0
	if !almostEqual(s.ByModel["gpt-4"], 0.75) {
		t.Error("Clone should deep-copy ByModel")
	}
}
