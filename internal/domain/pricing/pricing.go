package pricing

// DefaultModelPricing returns the default pricing for well-known models.
// Prices are per 1000 tokens in USD:
//
//	rate_per_1k = price_per_million / 1000
func DefaultModelPricing() []ModelCostRate {
	return []ModelCostRate{
		// GPT-4 Turbo: $10/MTok input, $30/MTok output
		{ModelID: "gpt-4-turbo", Provider: ProviderOpenAI, InputRate: 0.01, OutputRate: 0.03},
		{ModelID: "gpt-4-turbo-2024-04-09", Provider: ProviderOpenAI, InputRate: 0.01, OutputRate: 0.03},
		// GPT-4: $30/MTok input, $60/MTok output
		{ModelID: "gpt-4", Provider: ProviderOpenAI, InputRate: 0.03, OutputRate: 0.06},
		// GPT-4o: $2.50/MTok input, $10/MTok output
		{ModelID: "gpt-4o", Provider: ProviderOpenAI, InputRate: 0.0025, OutputRate: 0.01},
		// GPT-4o mini: $0.15/MTok input, $0.60/MTok output
		{ModelID: "gpt-4o-mini", Provider: ProviderOpenAI, InputRate: 0.00015, OutputRate: 0.0006},
		// GPT-4.1: $2/MTok input, $8/MTok output
		{ModelID: "gpt-4.1", Provider: ProviderOpenAI, InputRate: 0.002, OutputRate: 0.008},
		{ModelID: "gpt-4.1-mini", Provider: ProviderOpenAI, InputRate: 0.0004, OutputRate: 0.0016},
		// o3-mini: $1.10/MTok input, $4.40/MTok output
		{ModelID: "o3-mini", Provider: ProviderOpenAI, InputRate: 0.0011, OutputRate: 0.0044},
		// GPT-3.5 Turbo: $0.50/MTok input, $1.50/MTok output
		{ModelID: "gpt-3.5-turbo", Provider: ProviderOpenAI, InputRate: 0.0005, OutputRate: 0.0015},

		// Served through OpenAI-compatible gateways.
		{ModelID: "claude-sonnet-4-20250514", Provider: ProviderAnthropic, InputRate: 0.003, OutputRate: 0.015},
		{ModelID: "claude-3-5-haiku-latest", Provider: ProviderAnthropic, InputRate: 0.0008, OutputRate: 0.004},

		// Local models via an OpenAI-compatible Ollama endpoint.
		{ModelID: "llama3.1:8b", Provider: ProviderOllama, IsLocal: true},
		{ModelID: "qwen2.5-coder:7b", Provider: ProviderOllama, IsLocal: true},
	}
}
