package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage/memory"
)

func TestRepository(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository) error
		expErr  bool
	}{
		"Setting a value should be retrievable.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.SetValue(ctx, "theme", "dark"))

				v, err := repo.GetValue(ctx, "theme")
				require.NoError(t, err)
				assert.Equal(t, "dark", v)
				return nil
			},
		},

		"Setting a value twice should replace it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.SetValue(ctx, "theme", "dark"))
				require.NoError(t, repo.SetValue(ctx, "theme", "light"))

				v, err := repo.GetValue(ctx, "theme")
				require.NoError(t, err)
				assert.Equal(t, "light", v)
				return nil
			},
		},

		"Getting a missing key should fail with not found.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				_, err := repo.GetValue(ctx, "missing")
				assert.ErrorIs(t, err, model.ErrNotFound)
				return err
			},
			expErr: true,
		},

		"Clearing a key should remove it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.SetValue(ctx, "theme", "dark"))
				require.NoError(t, repo.ClearValue(ctx, "theme"))

				_, err := repo.GetValue(ctx, "theme")
				return err
			},
			expErr: true,
		},

		"Clearing a missing key should not fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				return repo.ClearValue(ctx, "missing")
			},
		},

		"Setting an empty key should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				return repo.SetValue(ctx, "", "x")
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
			require.NoError(t, err)

			err = test.actions(context.Background(), t, repo)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
