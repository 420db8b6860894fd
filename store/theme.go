package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/s0up4200/moviedeck/prefs"
)

// ThemeKey is the preference key holding the theme
const ThemeKey = "theme"

// Stored theme values
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ThemeValue renders a theme state as its stored value
func ThemeValue(t ThemeState) string {
	if t.IsDarkMode {
		return ThemeDark
	}
	return ThemeLight
}

// BindTheme reconciles the theme slice with storage once, then writes every
// theme change back. A stored "dark" on a light store dispatches exactly one
// ToggleTheme. Storage failures are logged and otherwise ignored. The
// returned function stops write-back.
func BindTheme(ctx context.Context, s *Store, storage prefs.Storage, logger zerolog.Logger) (cancel func()) {
	saved, err := storage.Get(ctx, ThemeKey)
	switch {
	case err == nil:
		if saved == ThemeDark && !s.IsDarkMode() {
			s.Dispatch(ToggleTheme{})
		}
	case errors.Is(err, prefs.ErrNotFound):
	default:
		logger.Warn().Err(err).Msg("Failed to read saved theme, using default")
	}

	return Watch(s, SelectTheme, func(t ThemeState) {
		value := ThemeValue(t)
		if err := storage.Set(ctx, ThemeKey, value); err != nil {
			logger.Error().Err(err).Str("theme", value).Msg("Failed to save theme")
			return
		}
		logger.Debug().Str("theme", value).Msg("Saved theme")
	})
}
