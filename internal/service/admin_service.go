package service

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/events"
	"github.com/fathima-sithara/ephemeral-chat/internal/repository"
)

var ErrInvalidRetention = errors.New("retention hours must be positive")

// SettingsStore is the settings half of the repository.
type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	PutSettings(ctx context.Context, s domain.Settings) error
}

// AdminService manages the global settings singleton. Only the admin role
// reaches UpdateSettings; the route enforces that.
type AdminService struct {
	store SettingsStore
	pub   Publisher // optional
	log   *zap.Logger
}

func NewAdminService(store SettingsStore, pub Publisher, log *zap.Logger) *AdminService {
	return &AdminService{store: store, pub: pub, log: log}
}

// GetSettings returns the stored settings, or the defaults when none exist
// yet.
func (s *AdminService) GetSettings(ctx context.Context) (domain.Settings, error) {
	st, err := s.store.GetSettings(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	if st.RetentionHours <= 0 {
		st.RetentionHours = domain.DefaultRetentionHours
	}
	return st, nil
}

// UpdateSettings replaces the singleton. Retention must be strictly
// positive; fractional hours are allowed.
func (s *AdminService) UpdateSettings(ctx context.Context, wallpaperURL string, retentionHours float64) (domain.Settings, error) {
	if retentionHours <= 0 {
		return domain.Settings{}, ErrInvalidRetention
	}

	st := domain.Settings{
		WallpaperURL:   NormalizeWallpaperURL(wallpaperURL),
		RetentionHours: retentionHours,
	}
	if err := s.store.PutSettings(ctx, st); err != nil {
		return domain.Settings{}, err
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, "settings", map[string]interface{}{"event": events.EventSettingsUpdated, "settings": st}); err != nil {
			s.log.Warn("publish settings.updated failed", zap.Error(err))
		}
	}
	return st, nil
}

// Matches the file ID in shared Google Drive links:
// https://drive.google.com/file/d/ID/view
var driveFileRe = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

// NormalizeWallpaperURL rewrites shared Google Drive file links into the
// direct-view form so they load as a background image.
func NormalizeWallpaperURL(u string) string {
	if m := driveFileRe.FindStringSubmatch(u); m != nil {
		return "https://drive.google.com/uc?export=view&id=" + m[1]
	}
	return u
}
