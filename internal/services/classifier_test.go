package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetrack-backend/internal/models"
)

func TestClassifierDisabledMode(t *testing.T) {
	svc := NewClassifierService("")
	assert.False(t, svc.Enabled())

	result, err := svc.Classify(context.Background(), []byte("not-a-real-image"))
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneral, result.Category)
	assert.Equal(t, models.RiskLow, result.RiskLevel)
	assert.Zero(t, result.Confidence)
	assert.NotEmpty(t, result.RecommendedAction)
	assert.NotEmpty(t, result.Instructions)
}

func TestNormalizeClassification(t *testing.T) {
	t.Run("valid values pass through", func(t *testing.T) {
		out := normalizeClassification(rawClassification{
			Category:          "hazardous",
			Confidence:        0.87,
			RiskLevel:         "critical",
			RecommendedAction: "Call hazardous waste disposal",
			Instructions:      []string{"Do not touch", "Ventilate the area"},
		})
		assert.Equal(t, models.CategoryHazardous, out.Category)
		assert.Equal(t, models.RiskCritical, out.RiskLevel)
		assert.InDelta(t, 0.87, out.Confidence, 0.001)
		assert.Len(t, out.Instructions, 2)
	})

	t.Run("case and whitespace normalized", func(t *testing.T) {
		out := normalizeClassification(rawClassification{
			Category:  " Recyclable ",
			RiskLevel: "LOW",
		})
		assert.Equal(t, models.CategoryRecyclable, out.Category)
		assert.Equal(t, models.RiskLow, out.RiskLevel)
	})

	t.Run("unknown enums degrade to general/low", func(t *testing.T) {
		out := normalizeClassification(rawClassification{
			Category:  "plastic",
			RiskLevel: "extreme",
		})
		assert.Equal(t, models.CategoryGeneral, out.Category)
		assert.Equal(t, models.RiskLow, out.RiskLevel)
	})

	t.Run("confidence clamped to unit interval", func(t *testing.T) {
		out := normalizeClassification(rawClassification{Category: "organic", RiskLevel: "low", Confidence: 1.4})
		assert.Equal(t, 1.0, out.Confidence)

		out = normalizeClassification(rawClassification{Category: "organic", RiskLevel: "low", Confidence: -0.2})
		assert.Equal(t, 0.0, out.Confidence)
	})

	t.Run("nil instructions become empty slice", func(t *testing.T) {
		out := normalizeClassification(rawClassification{Category: "general", RiskLevel: "low"})
		assert.NotNil(t, out.Instructions)
		assert.Empty(t, out.Instructions)
		assert.NotEmpty(t, out.RecommendedAction)
	})
}
