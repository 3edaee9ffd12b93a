package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"glidepath/internal/logger"
	"glidepath/internal/models"
	"glidepath/internal/remote"
)

const settingsTable = "settings"

// settingsService keeps a per-user settings snapshot consistent with the
// remote record using optimistic updates: a change is applied to the local
// snapshot before the remote write is issued, and rolled back if the write
// fails. Overlapping updates for the same user are not queued or
// de-duplicated; the last write to resolve wins.
type settingsService struct {
	remote remote.Service
	now    func() time.Time

	mu        sync.Mutex
	snapshots map[string]*settingsSnapshot
}

type settingsSnapshot struct {
	settings models.Settings
	saving   bool
	errMsg   string
}

// NewSettingsService creates a new SettingsServicer backed by svc. now may be
// nil to use the wall clock.
func NewSettingsService(svc remote.Service, now func() time.Time) SettingsServicer {
	if now == nil {
		now = time.Now
	}
	return &settingsService{
		remote:    svc,
		now:       now,
		snapshots: make(map[string]*settingsSnapshot),
	}
}

// Load fetches the user's remote settings record and replaces the local
// snapshot wholesale. A missing record is a normal outcome: the defaults are
// kept and no error is recorded. Any other failure sets the snapshot's error
// and stops; there is no retry loop.
func (s *settingsService) Load(ctx context.Context, userID string) SettingsState {
	var fetched models.Settings
	err := s.remote.Query(ctx, settingsTable, &fetched, remote.QueryOptions{
		Filters: []remote.Filter{remote.Eq("user_id", userID)},
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked(userID)
	switch {
	case err == nil:
		snap.settings = fetched
		snap.errMsg = ""
	case errors.Is(err, remote.ErrNoRows):
		snap.errMsg = ""
	default:
		logger.Get().Errorw("failed to load settings", "user_id", userID, "error", err)
		snap.errMsg = "Failed to load settings"
	}
	return snap.state()
}

// Update merges patch into the local snapshot immediately, then issues the
// remote write. The snapshot visible during the write already reflects the
// attempted change; on failure it is reverted to the pre-update copy and the
// error is surfaced. On success the sync timestamp is stamped.
func (s *settingsService) Update(ctx context.Context, userID string, patch SettingsPatch) SettingsState {
	s.mu.Lock()
	snap := s.snapshotLocked(userID)
	previous := snap.settings

	applyPatch(&snap.settings, patch)
	snap.saving = true
	snap.errMsg = ""
	attempted := snap.settings
	s.mu.Unlock()

	err := s.writeRemote(ctx, userID, attempted)

	s.mu.Lock()
	defer s.mu.Unlock()
	snap.saving = false
	if err != nil {
		logger.Get().Errorw("failed to update settings", "user_id", userID, "error", err)
		snap.settings = previous
		snap.errMsg = "Failed to update settings"
		return snap.state()
	}
	syncedAt := s.now()
	snap.settings.SyncedAt = &syncedAt
	return snap.state()
}

// State returns the current snapshot without touching the remote.
func (s *settingsService) State(userID string) SettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID).state()
}

// ResetError clears the snapshot's error flag and nothing else.
func (s *settingsService) ResetError(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotLocked(userID).errMsg = ""
}

// writeRemote updates the existing remote record, or inserts one on the
// first write. The returned record's generated fields are folded back into
// the snapshot by the caller via the attempted copy's ID.
func (s *settingsService) writeRemote(ctx context.Context, userID string, attempted models.Settings) error {
	if attempted.ID == "" {
		record := attempted
		if err := s.remote.Insert(ctx, settingsTable, &record); err != nil {
			return err
		}
		s.mu.Lock()
		s.snapshots[userID].settings.ID = record.ID
		s.mu.Unlock()
		return nil
	}

	return s.remote.Update(ctx, settingsTable, map[string]interface{}{
		"currency":              attempted.Currency,
		"theme":                 attempted.Theme,
		"notifications_enabled": attempted.NotificationsEnabled,
		"export_format":         attempted.ExportFormat,
	}, remote.Eq("user_id", userID))
}

func (s *settingsService) snapshotLocked(userID string) *settingsSnapshot {
	snap, ok := s.snapshots[userID]
	if !ok {
		snap = &settingsSnapshot{settings: models.DefaultSettings(userID)}
		s.snapshots[userID] = snap
	}
	return snap
}

func (snap *settingsSnapshot) state() SettingsState {
	return SettingsState{
		Settings: snap.settings,
		Saving:   snap.saving,
		Error:    snap.errMsg,
	}
}

func applyPatch(settings *models.Settings, patch SettingsPatch) {
	if patch.Currency != nil {
		settings.Currency = *patch.Currency
	}
	if patch.Theme != nil {
		settings.Theme = *patch.Theme
	}
	if patch.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.ExportFormat != nil {
		settings.ExportFormat = *patch.ExportFormat
	}
}
