package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual collaborator.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// FinancingMetrics is returned by GET /v1/metrics/financing.
type FinancingMetrics struct {
	TotalSelections     int64   `json:"totalSelections"`
	FallbackRate        float64 `json:"fallbackRate"`
	UnavailableRate     float64 `json:"unavailableRate"`
	RemoteFailures      int64   `json:"remoteFailures"`
	CatalogCacheHitRate float64 `json:"catalogCacheHitRate"`
	Period              string  `json:"period"`
}
