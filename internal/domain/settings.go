package domain

import "time"

// DefaultRetentionHours applies whenever the settings document is missing or
// unreadable. Message display must never stall on settings.
const DefaultRetentionHours = 24

// Settings is the admin-managed global configuration singleton.
type Settings struct {
	WallpaperURL   string  `bson:"wallpaper_url" json:"wallpaper_url"`
	RetentionHours float64 `bson:"retention_hours" json:"retention_hours"`
}

// DefaultSettings is the fallback when no configuration exists yet.
func DefaultSettings() Settings {
	return Settings{RetentionHours: DefaultRetentionHours}
}

// Retention converts the configured hours (a positive real number, admins may
// set fractions) into a duration, substituting the default for non-positive
// values.
func (s Settings) Retention() time.Duration {
	h := s.RetentionHours
	if h <= 0 {
		h = DefaultRetentionHours
	}
	return time.Duration(h * float64(time.Hour))
}
