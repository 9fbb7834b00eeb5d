package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/config"
	"github.com/UkralStul/interactor/internal/source/cached"
	"github.com/UkralStul/interactor/internal/source/dummyjson"
	"github.com/UkralStul/interactor/internal/source/inmemory"
)

func testConfig(source string) *config.Config {
	return &config.Config{
		Source:      source,
		SourceURL:   dummyjson.DefaultBaseURL,
		PageSize:    10,
		HTTPTimeout: time.Second,
		AckDelay:    time.Second,
		CacheTTL:    time.Minute,
	}
}

func TestNewSource_Backends(t *testing.T) {
	ctx := context.Background()

	src, closers, err := NewSource(ctx, testConfig(config.SourceInMemory), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &inmemory.Store{}, src)
	assert.Empty(t, closers)

	src, _, err = NewSource(ctx, testConfig(config.SourceDummyJSON), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &dummyjson.Client{}, src)
}

func TestNewSource_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.SourceInMemory)
	cfg.RedisURL = "redis://" + mr.Addr()

	src, closers, err := NewSource(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cached.Source{}, src)
	require.Len(t, closers, 1)

	posts, err := src.ListPosts(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.True(t, mr.Exists(cached.PostsKey(3)))

	for _, c := range closers {
		assert.NoError(t, c())
	}
}

func TestNewSource_BadRedisURL(t *testing.T) {
	cfg := testConfig(config.SourceInMemory)
	cfg.RedisURL = "::not a url"
	_, _, err := NewSource(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewSession_LoadsSeededFeed(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(config.SourceInMemory), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Feed.Load(context.Background()))
	snap := s.Feed.Snapshot()
	assert.NotEmpty(t, snap.Posts)
	assert.Empty(t, snap.LoadError)
}
