package model

import "time"

// AuditLog 代表一次完整的请求审计记录
type AuditLog struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`

	RequestBody  string `json:"request_body"`
	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"`
	LatencyMs    int64  `json:"latency_ms"`

	// 业务上下文 (intent_id, decision, forward status 等)
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}

// GovernanceEntry is one row of the administrative action trail
// (set_param and friends). Append-only.
type GovernanceEntry struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
