package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetrack-backend/internal/models"
)

func postFCMToken(t *testing.T, fs *fakeStore, userID string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/fcm-token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authed(req, userID, models.RoleDriver)
	rec := httptest.NewRecorder()
	RegisterFCMToken(fs).ServeHTTP(rec, req)
	return rec
}

func TestRegisterFCMToken(t *testing.T) {
	fs := newFakeStore()

	rec := postFCMToken(t, fs, "driver-1", RegisterFCMTokenRequest{Token: "fcm-abc", DeviceType: "android"})
	require.Equal(t, http.StatusOK, rec.Code)

	tokens, err := fs.TokensForUser(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fcm-abc"}, tokens)

	// Re-registering the same token is idempotent
	rec = postFCMToken(t, fs, "driver-1", RegisterFCMTokenRequest{Token: "fcm-abc", DeviceType: "android"})
	require.Equal(t, http.StatusOK, rec.Code)

	tokens, err = fs.TokensForUser(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestRegisterFCMTokenValidation(t *testing.T) {
	fs := newFakeStore()

	rec := postFCMToken(t, fs, "driver-1", RegisterFCMTokenRequest{Token: "", DeviceType: "android"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeErrorCode(t, rec))

	rec = postFCMToken(t, fs, "driver-1", RegisterFCMTokenRequest{Token: "fcm-abc", DeviceType: "windows"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeErrorCode(t, rec))

	// Only the two mobile platforms are registered devices
	rec = postFCMToken(t, fs, "driver-1", RegisterFCMTokenRequest{Token: "fcm-abc", DeviceType: "web"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeErrorCode(t, rec))
}
