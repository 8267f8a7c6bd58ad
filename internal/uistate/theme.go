package uistate

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/stagewatch/internal/model"
)

// ThemeName is the dashboard color theme.
type ThemeName string

const (
	ThemeLight ThemeName = "light"
	ThemeDark  ThemeName = "dark"
)

// Theme is the persisted dashboard theme, light by default.
type Theme struct {
	mu    sync.RWMutex
	value ThemeName
	store store
}

func loadTheme(ctx context.Context, s store) *Theme {
	t := &Theme{value: ThemeLight, store: s}
	raw, ok := s.loadRaw(ctx)
	if ok && (ThemeName(raw) == ThemeDark || ThemeName(raw) == ThemeLight) {
		t.value = ThemeName(raw)
	}
	return t
}

// Get returns the current theme.
func (t *Theme) Get() ThemeName {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set changes and persists the theme.
func (t *Theme) Set(ctx context.Context, name ThemeName) error {
	if name != ThemeDark && name != ThemeLight {
		return fmt.Errorf("unknown theme %q: %w", name, model.ErrNotValid)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = name
	t.store.saveRaw(ctx, string(name))

	return nil
}

func (t *Theme) reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = ThemeLight
	t.store.clear(ctx)
}
