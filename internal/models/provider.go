package models

import "time"

// APIProvider is an upstream compute endpoint (AI model, detection service,
// publishing target) with rate, concurrency and budget constraints.
type APIProvider struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	DisplayName string `db:"display_name" json:"display_name"`
	Description string `db:"description" json:"description"`

	ProviderType ProviderType `db:"provider_type" json:"provider_type"`

	APIKeyEncrypted string `db:"api_key_encrypted" json:"-"`
	APIURL          string `db:"api_url" json:"api_url"`
	APIVersion      string `db:"api_version" json:"api_version"`

	IsEnabled bool `db:"is_enabled" json:"is_enabled"`
	IsDefault bool `db:"is_default" json:"is_default"`
	Weight    int  `db:"weight" json:"weight"` // load-balancing weight

	MaxRequestsPerMinute  int `db:"max_requests_per_minute" json:"max_requests_per_minute"`
	MaxRequestsPerHour    int `db:"max_requests_per_hour" json:"max_requests_per_hour"`
	MaxConcurrentRequests int `db:"max_concurrent_requests" json:"max_concurrent_requests"`

	CostPer1kTokensInput  float64 `db:"cost_per_1k_tokens_input" json:"cost_per_1k_tokens_input"`
	CostPer1kTokensOutput float64 `db:"cost_per_1k_tokens_output" json:"cost_per_1k_tokens_output"`
	MonthlyBudget         float64 `db:"monthly_budget" json:"monthly_budget"` // <= 0 means unlimited
	CurrentUsage          float64 `db:"current_usage" json:"current_usage"`

	SuccessRate         float64 `db:"success_rate" json:"success_rate"`
	AverageResponseTime float64 `db:"average_response_time" json:"average_response_time"`
	TotalRequests       int64   `db:"total_requests" json:"total_requests"`
	FailedRequests      int64   `db:"failed_requests" json:"failed_requests"`

	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
}

// UpdateUsage applies one request outcome to the provider's running counters.
// The response-time update is a fixed 50/50 blend of the previous value and
// the new sample, kept exactly as the pipeline has always computed it:
// dashboards and alert thresholds are calibrated against this number.
func (p *APIProvider) UpdateUsage(tokensUsed int64, cost float64, success bool, responseTime float64) {
	now := time.Now().UTC()

	p.TotalRequests++
	p.CurrentUsage += cost
	p.LastUsedAt = &now

	if !success {
		p.FailedRequests++
	}

	p.SuccessRate = float64(p.TotalRequests-p.FailedRequests) / float64(p.TotalRequests) * 100

	if p.AverageResponseTime == 0 {
		p.AverageResponseTime = responseTime
	} else {
		p.AverageResponseTime = (p.AverageResponseTime + responseTime) / 2
	}

	p.UpdatedAt = now
}

// IsWithinBudget reports whether a request with the given estimated cost fits
// the monthly budget. A budget of zero or less means unlimited.
func (p *APIProvider) IsWithinBudget(estimatedCost float64) bool {
	if p.MonthlyBudget <= 0 {
		return true
	}
	return p.CurrentUsage+estimatedCost <= p.MonthlyBudget
}

// MaskedKey returns the stored key reference with all but the last four
// characters hidden, for admin API responses.
func (p *APIProvider) MaskedKey() string {
	if len(p.APIKeyEncrypted) > 4 {
		return "***" + p.APIKeyEncrypted[len(p.APIKeyEncrypted)-4:]
	}
	return "***"
}
