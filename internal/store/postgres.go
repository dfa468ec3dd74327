package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"wastetrack-backend/internal/models"
)

// SQLStore is the Postgres-backed implementation of every store interface.
// The waste_entries row is the only shared mutable resource in the system;
// its write discipline is a conditional UPDATE, so the database is the sole
// arbiter of racing transitions.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > HistoryLimit {
		return HistoryLimit
	}
	return limit
}

// CreateEntry persists a new entry in state 'pending'.
func (s *SQLStore) CreateEntry(ctx context.Context, e *models.WasteEntry) error {
	now := time.Now().Unix()
	e.Status = models.StatusPending
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `
		INSERT INTO waste_entries (
			id, reporter_id, category, confidence, risk_level, recommended_action,
			instructions, image_url, address, latitude, longitude, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.ReporterID, e.Category, e.Confidence, e.RiskLevel, e.RecommendedAction,
		e.Instructions, e.ImageURL, e.Address, e.Latitude, e.Longitude, e.Status,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert waste entry: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEntry(ctx context.Context, id string) (*models.WasteEntry, error) {
	var e models.WasteEntry
	err := s.db.GetContext(ctx, &e, `SELECT * FROM waste_entries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get waste entry: %w", err)
	}
	return &e, nil
}

func (s *SQLStore) HistoryByReporter(ctx context.Context, reporterID string, limit int) ([]models.WasteEntry, error) {
	entries := []models.WasteEntry{}
	query := `SELECT * FROM waste_entries
			  WHERE reporter_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	if err := s.db.SelectContext(ctx, &entries, query, reporterID, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) ListPending(ctx context.Context, limit int) ([]models.WasteEntry, error) {
	entries := []models.WasteEntry{}
	query := `SELECT * FROM waste_entries
			  WHERE status = 'pending'
			  ORDER BY created_at ASC
			  LIMIT $1`
	if err := s.db.SelectContext(ctx, &entries, query, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) ListAll(ctx context.Context, limit int) ([]models.WasteEntry, error) {
	entries := []models.WasteEntry{}
	query := `SELECT * FROM waste_entries ORDER BY created_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &entries, query, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// AcceptEntry applies first-write-wins: the UPDATE only matches while the row
// is still 'pending', so exactly one of two racing drivers gets the row back.
func (s *SQLStore) AcceptEntry(ctx context.Context, entryID, driverID string) (*models.WasteEntry, error) {
	var e models.WasteEntry
	query := `UPDATE waste_entries
			  SET status = 'accepted', collector_id = $2, updated_at = $3
			  WHERE id = $1 AND status = 'pending'
			  RETURNING *`

	err := s.db.GetContext(ctx, &e, query, entryID, driverID, time.Now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		// Either the id is unknown or somebody else got there first.
		if _, getErr := s.GetEntry(ctx, entryID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("accept entry: %w", err)
	}
	return &e, nil
}

// CollectEntry transitions accepted -> collected and records the proof image.
// collected_at and collection_image_url are written together, keeping the
// "set iff collected" invariant.
func (s *SQLStore) CollectEntry(ctx context.Context, entryID, driverID, proofImageURL string, lat, lng *float64) (*models.WasteEntry, error) {
	now := time.Now().Unix()

	var e models.WasteEntry
	query := `UPDATE waste_entries
			  SET status = 'collected',
			      collection_image_url = $3,
			      collected_at = $4,
			      updated_at = $4,
			      latitude = COALESCE($5, latitude),
			      longitude = COALESCE($6, longitude)
			  WHERE id = $1 AND status = 'accepted' AND collector_id = $2
			  RETURNING *`

	err := s.db.GetContext(ctx, &e, query, entryID, driverID, proofImageURL, now, lat, lng)
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := s.GetEntry(ctx, entryID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status != models.StatusAccepted {
			return nil, ErrInvalidState
		}
		return nil, ErrNotCollector
	}
	if err != nil {
		return nil, fmt.Errorf("collect entry: %w", err)
	}
	return &e, nil
}

// CorrectStatus is the admin correction path. Transitions into 'accepted' or
// 'collected' are rejected here because they carry extra state (a collector,
// a proof image) that only the driver endpoints can supply.
func (s *SQLStore) CorrectStatus(ctx context.Context, entryID string, to models.EntryStatus) (*models.WasteEntry, error) {
	if to == models.StatusAccepted || to == models.StatusCollected {
		return nil, ErrBadTransition
	}

	current, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, to) {
		return nil, ErrBadTransition
	}

	var e models.WasteEntry
	// Guard on the previously read status so a racing driver transition makes
	// this correction lose rather than clobber.
	query := `UPDATE waste_entries
			  SET status = $3,
			      collector_id = CASE WHEN $3 = 'pending' THEN NULL ELSE collector_id END,
			      updated_at = $4
			  WHERE id = $1 AND status = $2
			  RETURNING *`

	err = s.db.GetContext(ctx, &e, query, entryID, current.Status, to, time.Now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("correct status: %w", err)
	}
	return &e, nil
}

// Analytics aggregates category/risk/status breakdowns plus the recycling
// rate, optionally restricted to one reporter. Purely derived, no write path.
func (s *SQLStore) Analytics(ctx context.Context, reporterID *string) (*models.WasteAnalytics, error) {
	filter := ""
	args := []interface{}{}
	if reporterID != nil {
		filter = "WHERE reporter_id = $1"
		args = append(args, *reporterID)
	}

	var totals struct {
		Total         int      `db:"total"`
		Collected     int      `db:"collected"`
		Pending       int      `db:"pending"`
		Recyclable    int      `db:"recyclable"`
		AvgConfidence *float64 `db:"avg_confidence"`
	}
	totalsQuery := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status = 'collected' THEN 1 END) AS collected,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
			COUNT(CASE WHEN category IN ('recyclable', 'organic') THEN 1 END) AS recyclable,
			AVG(confidence) AS avg_confidence
		FROM waste_entries %s
	`, filter)
	if err := s.db.GetContext(ctx, &totals, totalsQuery, args...); err != nil {
		return nil, fmt.Errorf("analytics totals: %w", err)
	}

	analytics := &models.WasteAnalytics{
		TotalEntries:      totals.Total,
		CollectedEntries:  totals.Collected,
		PendingEntries:    totals.Pending,
		AvgConfidence:     totals.AvgConfidence,
		CategoryBreakdown: []models.CategoryCount{},
		RiskBreakdown:     []models.RiskCount{},
		StatusBreakdown:   []models.StatusCount{},
	}
	if totals.Total > 0 {
		analytics.RecyclingRate = float64(totals.Recyclable) / float64(totals.Total)
	}

	categoryQuery := fmt.Sprintf(`
		SELECT category, COUNT(*) AS count
		FROM waste_entries %s
		GROUP BY category
		ORDER BY count DESC
	`, filter)
	if err := s.db.SelectContext(ctx, &analytics.CategoryBreakdown, categoryQuery, args...); err != nil {
		return nil, fmt.Errorf("analytics categories: %w", err)
	}

	riskQuery := fmt.Sprintf(`
		SELECT risk_level, COUNT(*) AS count
		FROM waste_entries %s
		GROUP BY risk_level
		ORDER BY count DESC
	`, filter)
	if err := s.db.SelectContext(ctx, &analytics.RiskBreakdown, riskQuery, args...); err != nil {
		return nil, fmt.Errorf("analytics risk: %w", err)
	}

	statusQuery := fmt.Sprintf(`
		SELECT status, COUNT(*) AS count
		FROM waste_entries %s
		GROUP BY status
		ORDER BY count DESC
	`, filter)
	if err := s.db.SelectContext(ctx, &analytics.StatusBreakdown, statusQuery, args...); err != nil {
		return nil, fmt.Errorf("analytics status: %w", err)
	}

	return analytics, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().Unix()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `INSERT INTO users (id, email, password, name, role, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (email) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, u.ID, u.Email, u.Password, u.Name, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) RegisterFCMToken(ctx context.Context, userID, token, deviceType string) error {
	now := time.Now().Unix()
	query := `INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $4)
			  ON CONFLICT (token)
			  DO UPDATE SET user_id = EXCLUDED.user_id,
			                device_type = EXCLUDED.device_type,
			                updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, userID, token, deviceType, now); err != nil {
		return fmt.Errorf("register fcm token: %w", err)
	}
	return nil
}

func (s *SQLStore) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	tokens := []string{}
	if err := s.db.SelectContext(ctx, &tokens, `SELECT token FROM fcm_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("tokens for user: %w", err)
	}
	return tokens, nil
}

func (s *SQLStore) TokensForRole(ctx context.Context, role models.Role) ([]string, error) {
	tokens := []string{}
	query := `SELECT t.token FROM fcm_tokens t
			  JOIN users u ON u.id = t.user_id
			  WHERE u.role = $1`
	if err := s.db.SelectContext(ctx, &tokens, query, role); err != nil {
		return nil, fmt.Errorf("tokens for role: %w", err)
	}
	return tokens, nil
}

// UpsertDriverLocation keeps exactly one row per driver, updated in place.
func (s *SQLStore) UpsertDriverLocation(ctx context.Context, loc *models.DriverLocation) error {
	query := `
		INSERT INTO driver_current_location (
			driver_id, latitude, longitude, heading, speed, accuracy, entry_id, timestamp, is_connected, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
		ON CONFLICT (driver_id)
		DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			heading = EXCLUDED.heading,
			speed = EXCLUDED.speed,
			accuracy = EXCLUDED.accuracy,
			entry_id = EXCLUDED.entry_id,
			timestamp = EXCLUDED.timestamp,
			is_connected = TRUE,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		loc.DriverID, loc.Latitude, loc.Longitude, loc.Heading, loc.Speed, loc.Accuracy,
		loc.EntryID, loc.Timestamp, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert driver location: %w", err)
	}
	return nil
}

// MarkDriverDisconnected preserves the last known position for the fleet view.
func (s *SQLStore) MarkDriverDisconnected(ctx context.Context, driverID string) error {
	query := `UPDATE driver_current_location
			  SET is_connected = FALSE, updated_at = $2
			  WHERE driver_id = $1`
	if _, err := s.db.ExecContext(ctx, query, driverID, time.Now().Unix()); err != nil {
		return fmt.Errorf("mark driver disconnected: %w", err)
	}
	return nil
}

func (s *SQLStore) ActiveDrivers(ctx context.Context) ([]models.ActiveDriver, error) {
	drivers := []models.ActiveDriver{}
	query := `
		SELECT u.id AS driver_id, u.name, u.email,
		       l.latitude, l.longitude, l.entry_id,
		       COALESCE(l.is_connected, FALSE) AS is_connected,
		       l.updated_at
		FROM users u
		LEFT JOIN driver_current_location l ON l.driver_id = u.id
		WHERE u.role = 'driver'
		ORDER BY u.name ASC
	`
	if err := s.db.SelectContext(ctx, &drivers, query); err != nil {
		return nil, fmt.Errorf("active drivers: %w", err)
	}
	return drivers, nil
}
