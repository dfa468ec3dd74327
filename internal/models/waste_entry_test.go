package models

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	all := []EntryStatus{StatusPending, StatusAccepted, StatusCollected, StatusCancelled, StatusFailed}

	allowed := map[EntryStatus][]EntryStatus{
		StatusPending:   {StatusAccepted, StatusCancelled, StatusFailed},
		StatusAccepted:  {StatusCollected, StatusCancelled, StatusFailed, StatusPending},
		StatusCollected: {},
		StatusCancelled: {},
		StatusFailed:    {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAccepted.IsTerminal())
	assert.True(t, StatusCollected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestRecyclable(t *testing.T) {
	assert.True(t, CategoryRecyclable.Recyclable())
	assert.True(t, CategoryOrganic.Recyclable())
	assert.False(t, CategoryHazardous.Recyclable())
	assert.False(t, CategoryElectronic.Recyclable())
	assert.False(t, CategoryGeneral.Recyclable())
	assert.False(t, CategoryMedical.Recyclable())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidCategory(CategoryOrganic))
	assert.False(t, ValidCategory(WasteCategory("plastic")))
	assert.True(t, ValidRiskLevel(RiskCritical))
	assert.False(t, ValidRiskLevel(RiskLevel("extreme")))
	assert.True(t, ValidStatus(StatusAccepted))
	assert.False(t, ValidStatus(EntryStatus("done")))
	assert.True(t, ValidRole(RoleDriver))
	assert.False(t, ValidRole(Role("manager")))
}

func TestToWasteEntryResponse(t *testing.T) {
	reporter := "user-1"
	collectedAt := int64(1756400000)

	e := WasteEntry{
		ID:                "entry-1",
		ReporterID:        &reporter,
		Category:          CategoryRecyclable,
		Confidence:        0.92,
		RiskLevel:         RiskLow,
		RecommendedAction: "Rinse and place in the blue bin",
		Instructions:      pq.StringArray{"Rinse", "Flatten"},
		ImageURL:          "https://example.com/img.jpg",
		Status:            StatusCollected,
		CollectedAt:       &collectedAt,
		CreatedAt:         1756300000,
		UpdatedAt:         1756400000,
	}

	resp := e.ToWasteEntryResponse()

	assert.Equal(t, "entry-1", resp.ID)
	assert.True(t, resp.IsRecyclable)
	assert.Equal(t, []string{"Rinse", "Flatten"}, resp.Instructions)
	require.NotNil(t, resp.CollectedAtIso)
	assert.Equal(t, time.Unix(collectedAt, 0).UTC().Format(time.RFC3339), *resp.CollectedAtIso)
	assert.Equal(t, time.Unix(1756300000, 0).UTC().Format(time.RFC3339), resp.CreatedAtIso)
}

func TestToWasteEntryResponseEmptyInstructions(t *testing.T) {
	e := WasteEntry{
		ID:        "entry-2",
		Category:  CategoryGeneral,
		RiskLevel: RiskLow,
		Status:    StatusPending,
		CreatedAt: 1756300000,
		UpdatedAt: 1756300000,
	}

	resp := e.ToWasteEntryResponse()

	assert.NotNil(t, resp.Instructions)
	assert.Empty(t, resp.Instructions)
	assert.Nil(t, resp.CollectedAtIso)
	assert.False(t, resp.IsRecyclable)
}
