package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"wastetrack-backend/internal/models"
	"wastetrack-backend/internal/store"
)

// fakeStore is an in-memory stand-in for the Postgres store. The mutex
// makes it safe for the concurrent-accept tests; transition checks
// mirror the guarded UPDATEs of the real store.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*models.WasteEntry
	users   map[string]*models.User // keyed by email
	tokens  map[string][]string     // userID -> FCM tokens
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[string]*models.WasteEntry),
		users:   make(map[string]*models.User),
		tokens:  make(map[string][]string),
	}
}

func (f *fakeStore) CreateEntry(_ context.Context, e *models.WasteEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	cp.Status = models.StatusPending
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeStore) GetEntry(_ context.Context, id string) (*models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) HistoryByReporter(_ context.Context, reporterID string, limit int) ([]models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WasteEntry
	for _, e := range f.entries {
		if e.ReporterID != nil && *e.ReporterID == reporterID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListPending(_ context.Context, limit int) ([]models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WasteEntry
	for _, e := range f.entries {
		if e.Status == models.StatusPending {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context, limit int) ([]models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WasteEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) AcceptEntry(_ context.Context, entryID, driverID string) (*models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if e.Status != models.StatusPending {
		return nil, store.ErrConflict
	}
	e.Status = models.StatusAccepted
	e.CollectorID = &driverID
	e.UpdatedAt = time.Now().Unix()
	cp := *e
	return &cp, nil
}

func (f *fakeStore) CollectEntry(_ context.Context, entryID, driverID, proofImageURL string, lat, lng *float64) (*models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if e.Status != models.StatusAccepted {
		return nil, store.ErrInvalidState
	}
	if e.CollectorID == nil || *e.CollectorID != driverID {
		return nil, store.ErrNotCollector
	}
	now := time.Now().Unix()
	e.Status = models.StatusCollected
	e.CollectionImageURL = &proofImageURL
	e.CollectedAt = &now
	e.UpdatedAt = now
	if lat != nil {
		e.Latitude = lat
	}
	if lng != nil {
		e.Longitude = lng
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) CorrectStatus(_ context.Context, entryID string, to models.EntryStatus) (*models.WasteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if to == models.StatusAccepted || to == models.StatusCollected {
		return nil, store.ErrBadTransition
	}
	if !models.CanTransition(e.Status, to) {
		return nil, store.ErrBadTransition
	}
	e.Status = to
	if to == models.StatusPending {
		e.CollectorID = nil
	}
	e.UpdatedAt = time.Now().Unix()
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Analytics(_ context.Context, reporterID *string) (*models.WasteAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &models.WasteAnalytics{
		CategoryBreakdown: []models.CategoryCount{},
		RiskBreakdown:     []models.RiskCount{},
		StatusBreakdown:   []models.StatusCount{},
	}

	var confidenceSum float64
	recyclable := 0
	categories := map[models.WasteCategory]int{}
	for _, e := range f.entries {
		if reporterID != nil && (e.ReporterID == nil || *e.ReporterID != *reporterID) {
			continue
		}
		stats.TotalEntries++
		confidenceSum += e.Confidence
		if e.Status == models.StatusCollected {
			stats.CollectedEntries++
		}
		if e.Status == models.StatusPending {
			stats.PendingEntries++
		}
		if e.Category.Recyclable() {
			recyclable++
		}
		categories[e.Category]++
	}

	if stats.TotalEntries > 0 {
		stats.RecyclingRate = float64(recyclable) / float64(stats.TotalEntries)
		avg := confidenceSum / float64(stats.TotalEntries)
		stats.AvgConfidence = &avg
	}
	for c, n := range categories {
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, models.CategoryCount{Category: c, Count: n})
	}

	return stats, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return store.ErrDuplicateEmail
	}
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeStore) RegisterFCMToken(_ context.Context, userID, token, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens[userID] {
		if t == token {
			return nil
		}
	}
	f.tokens[userID] = append(f.tokens[userID], token)
	return nil
}

func (f *fakeStore) TokensForUser(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens[userID]...), nil
}

func (f *fakeStore) TokensForRole(_ context.Context, role models.Role) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, f.tokens[u.ID]...)
		}
	}
	return out, nil
}
