package models

// SearchResponse is the response for POST /api/v1/search and POST /api/v1/extract.
type SearchResponse struct {
	// Success indicates whether a record was produced.
	Success bool `json:"success"`

	// Record is the extracted product record. Nil when Success is false.
	Record *ProductRecord `json:"record,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the record was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports the state of the browser session manager.
type SessionStats struct {
	MaxSessions    int   `json:"max_sessions"`
	ActiveSessions int   `json:"active_sessions"`
	Acquired       int64 `json:"acquired"`
	Released       int64 `json:"released"`
	LaunchFailures int64 `json:"launch_failures"`
}
