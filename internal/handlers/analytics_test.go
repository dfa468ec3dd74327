package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetrack-backend/internal/models"
)

func seedAnalyticsEntries(t *testing.T, fs *fakeStore) {
	t.Helper()
	ctx := context.Background()

	e1 := pendingEntry("e1", "citizen-1", 100)
	e1.Category = models.CategoryRecyclable
	e1.Confidence = 0.9
	require.NoError(t, fs.CreateEntry(ctx, e1))

	e2 := pendingEntry("e2", "citizen-1", 200)
	e2.Category = models.CategoryHazardous
	e2.Confidence = 0.7
	require.NoError(t, fs.CreateEntry(ctx, e2))

	e3 := pendingEntry("e3", "citizen-2", 300)
	e3.Category = models.CategoryOrganic
	e3.Confidence = 0.8
	require.NoError(t, fs.CreateEntry(ctx, e3))

	_, err := fs.AcceptEntry(ctx, "e1", "driver-1")
	require.NoError(t, err)
	_, err = fs.CollectEntry(ctx, "e1", "driver-1", "https://img/p.jpg", nil, nil)
	require.NoError(t, err)
}

func getAnalytics(t *testing.T, fs *fakeStore, path, userID string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := authed(httptest.NewRequest(http.MethodGet, path, nil), userID, role)
	rec := httptest.NewRecorder()
	Analytics(fs).ServeHTTP(rec, req)
	return rec
}

func TestAnalyticsCitizenScopedToSelf(t *testing.T) {
	fs := newFakeStore()
	seedAnalyticsEntries(t, fs)

	rec := getAnalytics(t, fs, "/api/v1/waste/analytics", "citizen-1", models.RoleCitizen)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.WasteAnalytics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.CollectedEntries)
	assert.Equal(t, 1, stats.PendingEntries)
	assert.InDelta(t, 0.5, stats.RecyclingRate, 0.001)
	require.NotNil(t, stats.AvgConfidence)
	assert.InDelta(t, 0.8, *stats.AvgConfidence, 0.001)
}

func TestAnalyticsAdminSeesEverything(t *testing.T) {
	fs := newFakeStore()
	seedAnalyticsEntries(t, fs)

	rec := getAnalytics(t, fs, "/api/v1/waste/analytics", "admin-1", models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.WasteAnalytics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalEntries)
}

func TestAnalyticsAdminCanScopeToUser(t *testing.T) {
	fs := newFakeStore()
	seedAnalyticsEntries(t, fs)

	rec := getAnalytics(t, fs, "/api/v1/waste/analytics?user_id=citizen-2", "admin-1", models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.WasteAnalytics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalEntries)
	assert.InDelta(t, 1.0, stats.RecyclingRate, 0.001)
}

func TestAnalyticsCitizenCannotScopeToOthers(t *testing.T) {
	fs := newFakeStore()
	seedAnalyticsEntries(t, fs)

	rec := getAnalytics(t, fs, "/api/v1/waste/analytics?user_id=citizen-2", "citizen-1", models.RoleCitizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeErrorCode(t, rec))
}

func TestAnalyticsEmptyStore(t *testing.T) {
	fs := newFakeStore()

	rec := getAnalytics(t, fs, "/api/v1/waste/analytics", "admin-1", models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.WasteAnalytics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Zero(t, stats.RecyclingRate)
	assert.Nil(t, stats.AvgConfidence)
}
