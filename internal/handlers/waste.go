package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wastetrack-backend/internal/events"
	"wastetrack-backend/internal/middleware"
	"wastetrack-backend/internal/models"
	"wastetrack-backend/internal/services"
	"wastetrack-backend/internal/store"
	"wastetrack-backend/pkg/utils"
)

// maxUploadSize caps report and proof photos at 10 MB.
const maxUploadSize = 10 << 20

// WasteDeps bundles what the waste handlers need.
type WasteDeps struct {
	Entries    store.WasteStore
	Classifier *services.ClassifierService
	Uploader   services.ImageUploader
	Geocoder   *services.GeocodingService
	Bus        *events.Bus
}

var errNotAnImage = errors.New("file is not an image")

func readImageFile(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, err
	}

	// Client-declared content types lie; sniff the bytes instead.
	if !strings.HasPrefix(http.DetectContentType(img), "image/") {
		return nil, errNotAnImage
	}

	return img, nil
}

func parseCoordinate(r *http.Request, field string) *float64 {
	raw := r.FormValue(field)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Classify accepts a waste photo, classifies it and creates a pending
// pickup entry. The photo travels as multipart field "image"; optional
// "latitude" and "longitude" fields pin the report on the map.
func Classify(deps WasteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		img, err := readImageFile(r, "image")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, "Missing or invalid image file")
			return
		}

		lat := parseCoordinate(r, "latitude")
		lng := parseCoordinate(r, "longitude")

		result, err := deps.Classifier.Classify(r.Context(), img)
		if err != nil {
			log.Printf("❌ Classification failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Classification failed")
			return
		}

		entryID := uuid.New().String()

		var imageURL string
		if deps.Uploader != nil {
			imageURL, err = deps.Uploader.Upload(r.Context(), bytes.NewReader(img), services.FolderReports, entryID)
			if err != nil {
				log.Printf("❌ Image upload failed: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Image upload failed")
				return
			}
		} else {
			log.Println("⚠️ Image uploader not configured, storing entry without photo URL")
		}

		var address *string
		if lat != nil && lng != nil && deps.Geocoder != nil && deps.Geocoder.Enabled() {
			// Best effort; a failed lookup never blocks the report.
			if label, gerr := deps.Geocoder.ReverseGeocode(r.Context(), *lat, *lng); gerr != nil {
				log.Printf("⚠️ Reverse geocoding failed: %v", gerr)
			} else if label != "" {
				address = &label
			}
		}

		now := time.Now().Unix()
		entry := &models.WasteEntry{
			ID:                entryID,
			ReporterID:        &user.UserID,
			Category:          result.Category,
			Confidence:        result.Confidence,
			RiskLevel:         result.RiskLevel,
			RecommendedAction: result.RecommendedAction,
			Instructions:      result.Instructions,
			ImageURL:          imageURL,
			Address:           address,
			Latitude:          lat,
			Longitude:         lng,
			Status:            models.StatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := deps.Entries.CreateEntry(r.Context(), entry); err != nil {
			log.Printf("❌ Failed to create waste entry: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create entry")
			return
		}

		log.Printf("🗑️ New %s entry %s reported by %s (risk: %s, confidence: %.2f)",
			entry.Category, entry.ID, user.UserID, entry.RiskLevel, entry.Confidence)

		resp := entry.ToWasteEntryResponse()
		deps.Bus.Publish(events.Event{Kind: events.KindNewPickup, Data: resp})

		utils.RespondJSON(w, http.StatusCreated, resp)
	}
}

// History returns the current user's reported entries, newest first.
func History(entries store.WasteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		limit := store.HistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		list, err := entries.HistoryByReporter(r.Context(), user.UserID, limit)
		if err != nil {
			log.Printf("❌ Failed to fetch history: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to fetch history")
			return
		}

		utils.RespondJSON(w, http.StatusOK, toResponses(list))
	}
}

// Pending returns all entries waiting for a driver, oldest first.
func Pending(entries store.WasteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := entries.ListPending(r.Context(), store.HistoryLimit)
		if err != nil {
			log.Printf("❌ Failed to fetch pending entries: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to fetch pending entries")
			return
		}

		utils.RespondJSON(w, http.StatusOK, toResponses(list))
	}
}

// Accept assigns a pending entry to the calling driver. Exactly one of
// several racing drivers wins; the rest get a conflict.
func Accept(entries store.WasteStore, bus *events.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		entryID := chi.URLParam(r, "id")

		entry, err := entries.AcceptEntry(r.Context(), entryID, user.UserID)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				utils.RespondError(w, http.StatusNotFound, utils.CodeNotFound, "Entry not found")
			case errors.Is(err, store.ErrConflict):
				utils.RespondError(w, http.StatusConflict, utils.CodeConflict, "Entry is no longer pending")
			default:
				log.Printf("❌ Failed to accept entry %s: %v", entryID, err)
				utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to accept entry")
			}
			return
		}

		log.Printf("🚚 Entry %s accepted by driver %s", entryID, user.UserID)

		resp := entry.ToWasteEntryResponse()
		bus.Publish(events.Event{Kind: events.KindStatusUpdate, Data: resp})

		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// Collect marks an accepted entry as collected. The proof photo travels
// as multipart field "image"; optional "latitude"/"longitude" record
// where the collection happened.
func Collect(deps WasteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		entryID := chi.URLParam(r, "id")

		img, err := readImageFile(r, "image")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, "Missing or invalid proof image")
			return
		}

		lat := parseCoordinate(r, "latitude")
		lng := parseCoordinate(r, "longitude")

		var proofURL string
		if deps.Uploader != nil {
			proofURL, err = deps.Uploader.Upload(r.Context(), bytes.NewReader(img), services.FolderProofs, entryID)
			if err != nil {
				log.Printf("❌ Proof upload failed: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Proof upload failed")
				return
			}
		} else {
			log.Println("⚠️ Image uploader not configured, storing collection without proof URL")
		}

		entry, err := deps.Entries.CollectEntry(r.Context(), entryID, user.UserID, proofURL, lat, lng)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				utils.RespondError(w, http.StatusNotFound, utils.CodeNotFound, "Entry not found")
			case errors.Is(err, store.ErrInvalidState):
				utils.RespondError(w, http.StatusConflict, utils.CodeInvalidState, "Entry is not accepted")
			case errors.Is(err, store.ErrNotCollector):
				utils.RespondError(w, http.StatusForbidden, utils.CodeForbidden, "Entry is assigned to another driver")
			default:
				log.Printf("❌ Failed to collect entry %s: %v", entryID, err)
				utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to collect entry")
			}
			return
		}

		log.Printf("✅ Entry %s collected by driver %s", entryID, user.UserID)

		resp := entry.ToWasteEntryResponse()
		deps.Bus.Publish(events.Event{Kind: events.KindPickupCollected, Data: resp})

		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// GetEntry returns a single entry. Citizens may only read their own
// reports; drivers and admins may read any.
func GetEntry(entries store.WasteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, utils.CodeAuth, "Unauthorized")
			return
		}

		entryID := chi.URLParam(r, "id")

		entry, err := entries.GetEntry(r.Context(), entryID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondError(w, http.StatusNotFound, utils.CodeNotFound, "Entry not found")
				return
			}
			log.Printf("❌ Failed to fetch entry %s: %v", entryID, err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to fetch entry")
			return
		}

		if user.Role == models.RoleCitizen {
			if entry.ReporterID == nil || *entry.ReporterID != user.UserID {
				utils.RespondError(w, http.StatusForbidden, utils.CodeForbidden, "Not your entry")
				return
			}
		}

		utils.RespondJSON(w, http.StatusOK, entry.ToWasteEntryResponse())
	}
}

// CorrectStatus is the admin correction path. It validates the target
// state against the transition matrix; releasing an accepted entry back
// to pending clears the driver assignment.
func CorrectStatus(entries store.WasteStore, bus *events.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID := chi.URLParam(r, "id")

		var req models.CorrectStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, "Invalid request body")
			return
		}

		if !models.ValidStatus(req.Status) {
			utils.RespondError(w, http.StatusBadRequest, utils.CodeValidation, "Unknown status")
			return
		}

		entry, err := entries.CorrectStatus(r.Context(), entryID, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				utils.RespondError(w, http.StatusNotFound, utils.CodeNotFound, "Entry not found")
			case errors.Is(err, store.ErrBadTransition):
				utils.RespondError(w, http.StatusConflict, utils.CodeInvalidState, "Status transition not permitted")
			case errors.Is(err, store.ErrConflict):
				utils.RespondError(w, http.StatusConflict, utils.CodeConflict, "Entry changed concurrently, retry")
			default:
				log.Printf("❌ Failed to correct status of entry %s: %v", entryID, err)
				utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to correct status")
			}
			return
		}

		log.Printf("🛠️ Admin corrected entry %s to %s (reason: %s)", entryID, req.Status, req.Reason)

		resp := entry.ToWasteEntryResponse()
		bus.Publish(events.Event{Kind: events.KindStatusUpdate, Data: resp})
		if entry.Status == models.StatusPending {
			// A released entry is up for grabs again; drivers listen
			// for new_pickup, not status_update.
			bus.Publish(events.Event{Kind: events.KindNewPickup, Data: resp})
		}

		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// ListAll returns every entry regardless of status, newest first. Admin only.
func ListAll(entries store.WasteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := store.HistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		list, err := entries.ListAll(r.Context(), limit)
		if err != nil {
			log.Printf("❌ Failed to list entries: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to list entries")
			return
		}

		utils.RespondJSON(w, http.StatusOK, toResponses(list))
	}
}

func toResponses(list []models.WasteEntry) []models.WasteEntryResponse {
	out := make([]models.WasteEntryResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToWasteEntryResponse())
	}
	return out
}
