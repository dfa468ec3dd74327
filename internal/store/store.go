package store

import (
	"context"
	"errors"

	"wastetrack-backend/internal/models"
)

// Transition failures map onto the client-observed error taxonomy: a lost
// accept race is a conflict, a collect on anything but 'accepted' is an
// invalid state.
var (
	ErrNotFound       = errors.New("entry not found")
	ErrConflict       = errors.New("entry is no longer pending")
	ErrInvalidState   = errors.New("entry is not accepted")
	ErrNotCollector   = errors.New("entry is assigned to another driver")
	ErrBadTransition  = errors.New("status transition not permitted")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
)

// HistoryLimit caps the initial full-list fetch; there is no pagination cursor.
const HistoryLimit = 100

// WasteStore defines operations on WasteEntry records.
type WasteStore interface {
	CreateEntry(ctx context.Context, e *models.WasteEntry) error
	GetEntry(ctx context.Context, id string) (*models.WasteEntry, error)
	HistoryByReporter(ctx context.Context, reporterID string, limit int) ([]models.WasteEntry, error)
	ListPending(ctx context.Context, limit int) ([]models.WasteEntry, error)
	ListAll(ctx context.Context, limit int) ([]models.WasteEntry, error)

	// AcceptEntry transitions pending -> accepted for exactly one caller.
	// Whoever's UPDATE reaches the status check first wins; the loser gets
	// ErrConflict.
	AcceptEntry(ctx context.Context, entryID, driverID string) (*models.WasteEntry, error)

	// CollectEntry transitions accepted -> collected, recording the proof
	// image and collection time. Only the assigned collector may collect.
	CollectEntry(ctx context.Context, entryID, driverID, proofImageURL string, lat, lng *float64) (*models.WasteEntry, error)

	// CorrectStatus is the admin status-correction path; the target state is
	// validated against the transition matrix. Releasing accepted -> pending
	// clears the collector assignment.
	CorrectStatus(ctx context.Context, entryID string, to models.EntryStatus) (*models.WasteEntry, error)

	Analytics(ctx context.Context, reporterID *string) (*models.WasteAnalytics, error)
}

// UserStore defines operations on User entities.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenStore manages FCM device tokens.
type TokenStore interface {
	RegisterFCMToken(ctx context.Context, userID, token, deviceType string) error
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	TokensForRole(ctx context.Context, role models.Role) ([]string, error)
}

// LocationStore holds the latest known position per driver.
type LocationStore interface {
	UpsertDriverLocation(ctx context.Context, loc *models.DriverLocation) error
	MarkDriverDisconnected(ctx context.Context, driverID string) error
	ActiveDrivers(ctx context.Context) ([]models.ActiveDriver, error)
}
