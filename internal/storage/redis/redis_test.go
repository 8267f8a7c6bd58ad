package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	storageredis "github.com/slok/stagewatch/internal/storage/redis"
)

func TestNewRepositoryRequiresClientOrAddress(t *testing.T) {
	_, err := storageredis.NewRepository(context.Background(), storageredis.RepositoryConfig{})
	assert.Error(t, err)
}

func TestRepositoryValues(t *testing.T) {
	addr := os.Getenv("STAGEWATCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STAGEWATCH_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	repo, err := storageredis.NewRepository(ctx, storageredis.RepositoryConfig{
		Addr:      addr,
		KeyPrefix: fmt.Sprintf("stagewatch-test:%d:", time.Now().UnixNano()),
		Logger:    log.Noop,
	})
	require.NoError(t, err)

	_, err = repo.GetValue(ctx, "theme")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repo.SetValue(ctx, "theme", "dark"))
	got, err := repo.GetValue(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	require.NoError(t, repo.ClearValue(ctx, "theme"))
	_, err = repo.GetValue(ctx, "theme")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// The repository created the client, closing the repository closes it.
	require.NoError(t, repo.Close())
	_, err = repo.GetValue(ctx, "theme")
	assert.ErrorIs(t, err, redis.ErrClosed)
}

func TestRepositoryCloseKeepsInjectedClient(t *testing.T) {
	addr := os.Getenv("STAGEWATCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STAGEWATCH_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	repo, err := storageredis.NewRepository(ctx, storageredis.RepositoryConfig{Client: client, Logger: log.Noop})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	assert.NoError(t, client.Ping(ctx).Err())
}

func TestNewRepositoryUnreachable(t *testing.T) {
	_, err := storageredis.NewRepository(context.Background(), storageredis.RepositoryConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
