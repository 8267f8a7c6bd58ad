package uistate_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage/memory"
	"github.com/slok/stagewatch/internal/storage/storagemock"
	"github.com/slok/stagewatch/internal/uistate"
)

func newMemoryRepo(t *testing.T, values map[string]string) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, repo.SetValue(context.Background(), k, v))
	}
	return repo
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		values       map[string]string
		expCollapsed []string
		expOrder     []string
		expHidden    []string
		expTheme     uistate.ThemeName
	}{
		"Empty repository should load defaults.": {
			expCollapsed: []string{},
			expOrder:     []string{},
			expHidden:    []string{},
			expTheme:     uistate.ThemeLight,
		},

		"Persisted values should be loaded.": {
			values: map[string]string{
				uistate.KeyCollapsed: `["/Root/A","/Root"]`,
				uistate.KeyOrder:     `["B","A","C"]`,
				uistate.KeyHidden:    `["A"]`,
				uistate.KeyTheme:     "dark",
			},
			expCollapsed: []string{"/Root", "/Root/A"},
			expOrder:     []string{"B", "A", "C"},
			expHidden:    []string{"A"},
			expTheme:     uistate.ThemeDark,
		},

		"Corrupted values should load as defaults.": {
			values: map[string]string{
				uistate.KeyCollapsed: `{"not": "a list"`,
				uistate.KeyOrder:     `42`,
				uistate.KeyHidden:    `nope`,
				uistate.KeyTheme:     "purple",
			},
			expCollapsed: []string{},
			expOrder:     []string{},
			expHidden:    []string{},
			expTheme:     uistate.ThemeLight,
		},

		"Duplicated order names should be deduplicated.": {
			values: map[string]string{
				uistate.KeyOrder: `["B","A","B",""]`,
			},
			expCollapsed: []string{},
			expOrder:     []string{"B", "A"},
			expHidden:    []string{},
			expTheme:     uistate.ThemeLight,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			st, err := uistate.Load(context.Background(), uistate.Config{Repository: newMemoryRepo(t, test.values)})
			require.NoError(err)

			assert.Equal(test.expCollapsed, st.Collapse.IDs())
			assert.Equal(test.expOrder, st.Order.Names())
			assert.Equal(test.expHidden, st.Hidden.Names())
			assert.Equal(test.expTheme, st.Theme.Get())
		})
	}
}

func TestLoadRequiresRepository(t *testing.T) {
	_, err := uistate.Load(context.Background(), uistate.Config{})
	assert.Error(t, err)
}

func TestCollapseToggle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newMemoryRepo(t, nil)
	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	assert.False(st.Collapse.IsCollapsed("/Root/A"))

	assert.True(st.Collapse.Toggle(ctx, "/Root/A"))
	assert.True(st.Collapse.IsCollapsed("/Root/A"))
	got, err := repo.GetValue(ctx, uistate.KeyCollapsed)
	require.NoError(err)
	assert.JSONEq(`["/Root/A"]`, got)

	// Toggling twice restores the original state.
	assert.False(st.Collapse.Toggle(ctx, "/Root/A"))
	assert.False(st.Collapse.IsCollapsed("/Root/A"))
	got, err = repo.GetValue(ctx, uistate.KeyCollapsed)
	require.NoError(err)
	assert.JSONEq(`[]`, got)

	// A new session sees the persisted state.
	st.Collapse.Toggle(ctx, "/Root/B")
	st2, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)
	assert.True(st2.Collapse.IsCollapsed("/Root/B"))
}

func TestHiddenToggle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newMemoryRepo(t, nil)
	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	assert.True(st.Hidden.Toggle(ctx, "B"))
	assert.True(st.Hidden.Toggle(ctx, "A"))
	assert.Equal([]string{"A", "B"}, st.Hidden.Names())
	got, err := repo.GetValue(ctx, uistate.KeyHidden)
	require.NoError(err)
	assert.JSONEq(`["A","B"]`, got)

	assert.False(st.Hidden.Toggle(ctx, "B"))
	assert.False(st.Hidden.IsHidden("B"))
	assert.True(st.Hidden.IsHidden("A"))
}

func TestOrderSet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newMemoryRepo(t, nil)
	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	names := []string{"B", "A", "C"}
	st.Order.Set(ctx, names)
	names[0] = "X"

	assert.Equal([]string{"B", "A", "C"}, st.Order.Names())
	got, err := repo.GetValue(ctx, uistate.KeyOrder)
	require.NoError(err)
	assert.JSONEq(`["B","A","C"]`, got)
}

func TestThemeSet(t *testing.T) {
	tests := map[string]struct {
		theme    uistate.ThemeName
		expTheme uistate.ThemeName
		expErr   bool
	}{
		"Dark theme should be set.": {
			theme:    uistate.ThemeDark,
			expTheme: uistate.ThemeDark,
		},
		"Light theme should be set.": {
			theme:    uistate.ThemeLight,
			expTheme: uistate.ThemeLight,
		},
		"Unknown theme should fail and keep the current theme.": {
			theme:    "solarized",
			expTheme: uistate.ThemeLight,
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			st, err := uistate.Load(ctx, uistate.Config{Repository: newMemoryRepo(t, nil)})
			require.NoError(err)

			err = st.Theme.Set(ctx, test.theme)
			if test.expErr {
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
			}
			assert.Equal(test.expTheme, st.Theme.Get())
		})
	}
}

func TestPersistenceFailuresKeepMemoryState(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := storagemock.NewMockRepository(t)
	repo.On("GetValue", mock.Anything, mock.Anything).Return("", fmt.Errorf("disk gone"))
	repo.On("SetValue", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))

	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	assert.True(st.Collapse.Toggle(ctx, "/Root"))
	assert.True(st.Collapse.IsCollapsed("/Root"))
	require.NoError(st.Theme.Set(ctx, uistate.ThemeDark))
	assert.Equal(uistate.ThemeDark, st.Theme.Get())
	st.Order.Set(ctx, []string{"A"})
	assert.Equal([]string{"A"}, st.Order.Names())
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newMemoryRepo(t, map[string]string{
		uistate.KeyCollapsed: `["/Root"]`,
		uistate.KeyOrder:     `["B","A"]`,
		uistate.KeyHidden:    `["A"]`,
		uistate.KeyTheme:     "dark",
	})
	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	st.Reset(ctx)

	assert.Empty(st.Collapse.IDs())
	assert.False(st.Collapse.IsCollapsed("/Root"))
	assert.Empty(st.Order.Names())
	assert.Empty(st.Hidden.Names())
	assert.Equal(uistate.ThemeLight, st.Theme.Get())

	for _, key := range []string{uistate.KeyCollapsed, uistate.KeyOrder, uistate.KeyHidden, uistate.KeyTheme} {
		_, err := repo.GetValue(ctx, key)
		assert.ErrorIs(err, model.ErrNotFound, key)
	}
}

func TestResetFailuresKeepMemoryState(t *testing.T) {
	ctx := context.Background()

	repo := storagemock.NewMockRepository(t)
	repo.On("GetValue", mock.Anything, uistate.KeyTheme).Return("dark", nil)
	repo.On("GetValue", mock.Anything, mock.Anything).Return("", model.ErrNotFound)
	repo.On("ClearValue", mock.Anything, mock.Anything).Return(fmt.Errorf("disk gone")).Times(4)

	st, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(t, err)
	require.Equal(t, uistate.ThemeDark, st.Theme.Get())

	st.Reset(ctx)
	assert.Equal(t, uistate.ThemeLight, st.Theme.Get())
}
