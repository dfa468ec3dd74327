package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"wastetrack-backend/internal/middleware"
	"wastetrack-backend/internal/store"
	"wastetrack-backend/pkg/utils"
)

type RegisterFCMTokenRequest struct {
	Token      string `json:"token" validate:"required"`
	DeviceType string `json:"device_type" validate:"required,oneof=ios android"`
}

// RegisterFCMToken stores a push notification token for the current user.
// Tokens are upserted so re-registering the same device is harmless.
func RegisterFCMToken(tokens store.TokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, err.Error())
			return
		}

		if err := tokens.RegisterFCMToken(r.Context(), user.UserID, req.Token, req.DeviceType); err != nil {
			log.Printf("❌ Failed to register FCM token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to register token")
			return
		}

		log.Printf("📱 FCM token registered for user %s (%s)", user.UserID, req.DeviceType)
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
