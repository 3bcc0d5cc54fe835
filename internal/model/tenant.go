package model

// RateLimitConfig defines a tenant's request budget
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Tenant is one accessor of the gateway (a persona's MoneyPenny agent,
// or an operator integration)
type Tenant struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	ApiKey string          `json:"api_key"`
	Rate   RateLimitConfig `json:"rate_limit"`
}
