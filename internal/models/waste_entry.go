package models

import (
	"time"

	"github.com/lib/pq"
)

// WasteCategory is the classifier-assigned category of a reported item.
type WasteCategory string

const (
	CategoryOrganic    WasteCategory = "organic"
	CategoryRecyclable WasteCategory = "recyclable"
	CategoryHazardous  WasteCategory = "hazardous"
	CategoryElectronic WasteCategory = "electronic"
	CategoryGeneral    WasteCategory = "general"
	CategoryMedical    WasteCategory = "medical"
)

// RiskLevel grades how dangerous a reported item is to handle.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// EntryStatus is the lifecycle state of a WasteEntry.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusAccepted  EntryStatus = "accepted"
	StatusCollected EntryStatus = "collected"
	StatusCancelled EntryStatus = "cancelled"
	StatusFailed    EntryStatus = "failed"
)

// Categories lists every valid waste category.
func Categories() []WasteCategory {
	return []WasteCategory{
		CategoryOrganic, CategoryRecyclable, CategoryHazardous,
		CategoryElectronic, CategoryGeneral, CategoryMedical,
	}
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c WasteCategory) bool {
	switch c {
	case CategoryOrganic, CategoryRecyclable, CategoryHazardous,
		CategoryElectronic, CategoryGeneral, CategoryMedical:
		return true
	}
	return false
}

// ValidRiskLevel reports whether r is one of the known risk levels.
func ValidRiskLevel(r RiskLevel) bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s EntryStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCollected, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether an entry may move from one lifecycle state to
// another. accepted -> pending is the admin "release for reassignment"
// correction; collected, cancelled and failed are terminal.
func CanTransition(from, to EntryStatus) bool {
	switch from {
	case StatusPending:
		switch to {
		case StatusAccepted, StatusCancelled, StatusFailed:
			return true
		case StatusPending, StatusCollected:
			return false
		}
	case StatusAccepted:
		switch to {
		case StatusCollected, StatusCancelled, StatusFailed, StatusPending:
			return true
		case StatusAccepted:
			return false
		}
	case StatusCollected, StatusCancelled, StatusFailed:
		return false
	}
	return false
}

// IsTerminal reports whether s is an absorbing state.
func (s EntryStatus) IsTerminal() bool {
	switch s {
	case StatusCollected, StatusCancelled, StatusFailed:
		return true
	case StatusPending, StatusAccepted:
		return false
	}
	return false
}

// WasteEntry is the persisted record of one reported waste item.
// collected_at and collection_image_url are set iff status is 'collected'.
type WasteEntry struct {
	ID                 string         `json:"id" db:"id"`
	ReporterID         *string        `json:"reporter_id,omitempty" db:"reporter_id"`
	CollectorID        *string        `json:"collector_id,omitempty" db:"collector_id"`
	Category           WasteCategory  `json:"category" db:"category"`
	Confidence         float64        `json:"confidence" db:"confidence"`
	RiskLevel          RiskLevel      `json:"risk_level" db:"risk_level"`
	RecommendedAction  string         `json:"recommended_action" db:"recommended_action"`
	Instructions       pq.StringArray `json:"instructions" db:"instructions"`
	ImageURL           string         `json:"image_url" db:"image_url"`
	CollectionImageURL *string        `json:"collection_image_url,omitempty" db:"collection_image_url"`
	Address            *string        `json:"address,omitempty" db:"address"`
	Latitude           *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64       `json:"longitude,omitempty" db:"longitude"`
	Status             EntryStatus    `json:"status" db:"status"`
	CollectedAt        *int64         `json:"collected_at,omitempty" db:"collected_at"` // Unix timestamp
	CreatedAt          int64          `json:"created_at" db:"created_at"`               // Unix timestamp
	UpdatedAt          int64          `json:"updated_at" db:"updated_at"`               // Unix timestamp
}

// WasteEntryResponse is what we send to the client with ISO timestamps
type WasteEntryResponse struct {
	ID                 string        `json:"id"`
	ReporterID         *string       `json:"reporter_id,omitempty"`
	CollectorID        *string       `json:"collector_id,omitempty"`
	Category           WasteCategory `json:"category"`
	Confidence         float64       `json:"confidence"`
	IsRecyclable       bool          `json:"is_recyclable"`
	RiskLevel          RiskLevel     `json:"risk_level"`
	RecommendedAction  string        `json:"recommended_action"`
	Instructions       []string      `json:"instructions"`
	ImageURL           string        `json:"image_url"`
	CollectionImageURL *string       `json:"collection_image_url,omitempty"`
	Address            *string       `json:"address,omitempty"`
	Latitude           *float64      `json:"latitude,omitempty"`
	Longitude          *float64      `json:"longitude,omitempty"`
	Status             EntryStatus   `json:"status"`
	CollectedAtIso     *string       `json:"collectedAtIso,omitempty"`
	CreatedAtIso       string        `json:"createdAtIso"`
	UpdatedAtIso       string        `json:"updatedAtIso"`
}

// Recyclable reports whether a category is divertable from landfill.
func (c WasteCategory) Recyclable() bool {
	switch c {
	case CategoryRecyclable, CategoryOrganic:
		return true
	case CategoryHazardous, CategoryElectronic, CategoryGeneral, CategoryMedical:
		return false
	}
	return false
}

// ToWasteEntryResponse converts a WasteEntry to WasteEntryResponse
func (e *WasteEntry) ToWasteEntryResponse() WasteEntryResponse {
	resp := WasteEntryResponse{
		ID:                 e.ID,
		ReporterID:         e.ReporterID,
		CollectorID:        e.CollectorID,
		Category:           e.Category,
		Confidence:         e.Confidence,
		IsRecyclable:       e.Category.Recyclable(),
		RiskLevel:          e.RiskLevel,
		RecommendedAction:  e.RecommendedAction,
		Instructions:       []string(e.Instructions),
		ImageURL:           e.ImageURL,
		CollectionImageURL: e.CollectionImageURL,
		Address:            e.Address,
		Latitude:           e.Latitude,
		Longitude:          e.Longitude,
		Status:             e.Status,
		CreatedAtIso:       time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAtIso:       time.Unix(e.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}

	if resp.Instructions == nil {
		resp.Instructions = []string{}
	}

	if e.CollectedAt != nil {
		iso := time.Unix(*e.CollectedAt, 0).UTC().Format(time.RFC3339)
		resp.CollectedAtIso = &iso
	}

	return resp
}

// CorrectStatusRequest is the request body for POST /api/v1/waste/:id/status
type CorrectStatusRequest struct {
	Status EntryStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}
