package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/services"
	"learnstack/test/testutils"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) ActiveTopics(context.Context) ([]model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return testutils.Topics(), nil
}

func TestCatalogCacheLocalFallback(t *testing.T) {
	src := &countingSource{}
	cache := services.NewCatalogCache(src, nil, time.Minute, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		topics, err := cache.ActiveTopics(ctx)
		require.NoError(t, err)
		assert.Len(t, topics, 2)
	}
	assert.Equal(t, 1, src.calls)

	require.NoError(t, cache.Invalidate(ctx))
	_, err := cache.ActiveTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCatalogCacheDisabled(t *testing.T) {
	src := &countingSource{}
	cache := services.NewCatalogCache(src, nil, 0, nil)

	for i := 0; i < 2; i++ {
		_, err := cache.ActiveTopics(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, src.calls)
}

func TestCatalogCacheSourceError(t *testing.T) {
	src := &countingSource{err: errors.New("mongo down")}
	cache := services.NewCatalogCache(src, nil, time.Minute, nil)

	_, err := cache.ActiveTopics(context.Background())
	assert.Error(t, err)

	src.err = nil
	topics, err := cache.ActiveTopics(context.Background())
	require.NoError(t, err)
	assert.Len(t, topics, 2, "failures are not cached")
}

// gatedSource blocks its first load until release is closed.
type gatedSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	loadErr error
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedSource) ActiveTopics(ctx context.Context) ([]model.Topic, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		s.loadErr = ctx.Err()
	}
	return testutils.Topics(), nil
}

func TestCatalogCacheInvalidateDuringLoad(t *testing.T) {
	src := newGatedSource()
	cache := services.NewCatalogCache(src, nil, time.Minute, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := cache.ActiveTopics(ctx)
		done <- err
	}()
	<-src.started
	require.NoError(t, cache.Invalidate(ctx))
	close(src.release)
	require.NoError(t, <-done)

	_, err := cache.ActiveTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "a load started before invalidation is not cached")

	_, err = cache.ActiveTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCatalogCacheLoadOutlivesCancelledCaller(t *testing.T) {
	src := newGatedSource()
	cache := services.NewCatalogCache(src, nil, time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := cache.ActiveTopics(ctx)
		done <- err
	}()
	<-src.started
	cancel()
	close(src.release)
	require.NoError(t, <-done)
	assert.NoError(t, src.loadErr)

	topics, err := cache.ActiveTopics(context.Background())
	require.NoError(t, err)
	assert.Len(t, topics, 2)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestEvalThrottleInProcess(t *testing.T) {
	throttle := services.NewEvalThrottle(nil, time.Hour)
	ctx := context.Background()

	ok, err := throttle.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = throttle.Allow(ctx, "u1")
	assert.False(t, ok)
	ok, _ = throttle.Allow(ctx, "u2")
	assert.True(t, ok, "windows are per user")

	open := services.NewEvalThrottle(nil, 0)
	for i := 0; i < 3; i++ {
		ok, _ = open.Allow(ctx, "u1")
		assert.True(t, ok)
	}
}
