package handlers

import (
	"log"
	"net/http"

	"wastetrack-backend/internal/store"
	"wastetrack-backend/pkg/utils"
)

// ActiveDrivers returns the last known position of every driver for the
// admin fleet map. Disconnected drivers keep their last position with
// is_connected=false.
func ActiveDrivers(locations store.LocationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drivers, err := locations.ActiveDrivers(r.Context())
		if err != nil {
			log.Printf("❌ Failed to fetch active drivers: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to fetch active drivers")
			return
		}

		utils.RespondJSON(w, http.StatusOK, drivers)
	}
}
