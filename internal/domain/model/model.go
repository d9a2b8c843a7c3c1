// Package model defines the reasoning model catalog: per-model pricing,
// provider routing and the cost-based fallback chain.
package model

// Provider identifies a reasoning provider family.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Model describes one reasoning model the client can route to.
type Model struct {
	ID               string
	Provider         Provider
	APIModel         string
	InputPricePer1M  float64
	OutputPricePer1M float64
	MaxOutputTokens  int
	SupportsJSON     bool
}

// DefaultModel is used when a caller does not name a model.
const DefaultModel = "gpt-4o-mini"

// Catalog is the static model table. Selection of provider is purely by
// model id; there is no runtime discovery.
var Catalog = map[string]Model{
	"claude-sonnet": {
		ID:               "claude-sonnet",
		Provider:         ProviderAnthropic,
		APIModel:         "claude-sonnet-4-20250514",
		InputPricePer1M:  3,
		OutputPricePer1M: 15,
		MaxOutputTokens:  8192,
	},
	"gpt-4o": {
		ID:               "gpt-4o",
		Provider:         ProviderOpenAI,
		APIModel:         "gpt-4o",
		InputPricePer1M:  2.5,
		OutputPricePer1M: 10,
		MaxOutputTokens:  16384,
		SupportsJSON:     true,
	},
	"claude-haiku": {
		ID:               "claude-haiku",
		Provider:         ProviderAnthropic,
		APIModel:         "claude-haiku-3-20240307",
		InputPricePer1M:  0.25,
		OutputPricePer1M: 1.25,
		MaxOutputTokens:  4096,
	},
	"gpt-4o-mini": {
		ID:               "gpt-4o-mini",
		Provider:         ProviderOpenAI,
		APIModel:         "gpt-4o-mini",
		InputPricePer1M:  0.15,
		OutputPricePer1M: 0.6,
		MaxOutputTokens:  16384,
		SupportsJSON:     true,
	},
}

// fallbackChain is a static total order from most to least expensive.
// The last model has no fallback.
var fallbackChain = []string{"claude-sonnet", "gpt-4o", "claude-haiku", "gpt-4o-mini"}

// Lookup returns the catalog entry for id, or the default model when the
// id is unknown.
func Lookup(id string) Model {
	if m, ok := Catalog[id]; ok {
		return m
	}
	return Catalog[DefaultModel]
}

// Cheaper returns the id of the next cheaper model in the fallback chain,
// or "" when the given model is already the cheapest.
func Cheaper(id string) string {
	for i, m := range fallbackChain {
		if m == id && i+1 < len(fallbackChain) {
			return fallbackChain[i+1]
		}
	}
	return ""
}

// EstimateCost projects USD cost for a token count pair against a model's
// per-million-token prices.
func EstimateCost(id string, inputTokens, outputTokens int) float64 {
	m := Lookup(id)
	return (float64(inputTokens)*m.InputPricePer1M + float64(outputTokens)*m.OutputPricePer1M) / 1_000_000
}

// charsPerToken is a fixed pre-flight approximation. Callers must treat
// token estimates as advisory, not a guarantee.
const charsPerToken = 4

// EstimateTokens approximates the token count of a prompt.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}
