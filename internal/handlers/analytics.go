package handlers

import (
	"log"
	"net/http"

	"wastetrack-backend/internal/middleware"
	"wastetrack-backend/internal/models"
	"wastetrack-backend/internal/store"
	"wastetrack-backend/pkg/utils"
)

// Analytics returns aggregate waste statistics. Citizens see their own
// numbers; admins see the whole system and may scope to one reporter
// with ?user_id=.
func Analytics(entries store.WasteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		var reporterID *string
		switch user.Role {
		case models.RoleAdmin:
			if uid := r.URL.Query().Get("user_id"); uid != "" {
				reporterID = &uid
			}
		case models.RoleCitizen, models.RoleDriver:
			if r.URL.Query().Get("user_id") != "" {
				utils.RespondError(w, http.StatusForbidden, utils.CodeForbidden, "Only admins may scope analytics to another user")
				return
			}
			reporterID = &user.UserID
		}

		stats, err := entries.Analytics(r.Context(), reporterID)
		if err != nil {
			log.Printf("❌ Failed to compute analytics: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to compute analytics")
			return
		}

		utils.RespondJSON(w, http.StatusOK, stats)
	}
}
