package domain

// EngineMetrics is a snapshot of engine activity for GET /v1/metrics/engine.
type EngineMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	RecommendationsMade int64   `json:"recommendations_made"`
	RecommendationsRun  int64   `json:"recommendations_executed"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Period              string  `json:"period"`
}
