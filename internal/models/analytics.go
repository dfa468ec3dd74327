package models

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Category WasteCategory `json:"category" db:"category"`
	Count    int           `json:"count" db:"count"`
}

// RiskCount is one slice of the risk-level breakdown.
type RiskCount struct {
	RiskLevel RiskLevel `json:"risk_level" db:"risk_level"`
	Count     int       `json:"count" db:"count"`
}

// StatusCount is one slice of the lifecycle-status breakdown.
type StatusCount struct {
	Status EntryStatus `json:"status" db:"status"`
	Count  int         `json:"count" db:"count"`
}

// WasteAnalytics is the aggregate reporting view over waste entries.
// Purely derived, no write path.
type WasteAnalytics struct {
	TotalEntries      int             `json:"total_entries"`
	CollectedEntries  int             `json:"collected_entries"`
	PendingEntries    int             `json:"pending_entries"`
	RecyclingRate     float64         `json:"recycling_rate"` // share of entries in recyclable/organic categories
	AvgConfidence     *float64        `json:"avg_confidence"`
	CategoryBreakdown []CategoryCount `json:"category_breakdown"`
	RiskBreakdown     []RiskCount     `json:"risk_breakdown"`
	StatusBreakdown   []StatusCount   `json:"status_breakdown"`
}
