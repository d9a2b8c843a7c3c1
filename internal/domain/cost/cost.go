// Package cost defines domain types for cost and token aggregation.
package cost

// Summary holds aggregate reasoning cost and token metrics for a tenant.
type Summary struct {
	TotalCostUSD   float64 `json:"total_cost_usd"`
	TotalTokens    int64   `json:"total_tokens"`
	RunCount       int     `json:"run_count"`
	ActionCount    int     `json:"action_count"`
	ErrorCount     int     `json:"error_count"`
}

// AgentSummary breaks down cost by agent type.
type AgentSummary struct {
	AgentType string `json:"agent_type"`
	Summary
}

// DailyCost holds aggregated cost for a single day.
type DailyCost struct {
	Date     string  `json:"date"`
	CostUSD  float64 `json:"cost_usd"`
	Tokens   int64   `json:"tokens"`
	RunCount int     `json:"run_count"`
}
