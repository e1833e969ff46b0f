package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries   map[string][]byte
	ttls      map[string]time.Duration
	getErr    error
	deleteErr error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := svc.Get(ctx, "dash:mapping", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "dash:mapping", map[string]int{"total": 3}, 0))
	assert.Equal(t, time.Minute, repo.ttls["dash:mapping"])

	hit, err = svc.Get(ctx, "dash:mapping", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["total"])
}

func TestCacheServiceInvalidateDashboard(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	require.NoError(t, svc.Set(ctx, "dash:mapping", 1, 0))
	require.NoError(t, svc.Set(ctx, "dash:summary:all", 1, 0))
	require.NoError(t, svc.Set(ctx, "other", 1, 0))

	svc.InvalidateDashboard(ctx)

	assert.NotContains(t, repo.entries, "dash:mapping")
	assert.NotContains(t, repo.entries, "dash:summary:all")
	assert.Contains(t, repo.entries, "other")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "dash:mapping", 1, 0))
	assert.Empty(t, repo.entries)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out int
	hit, err := svc.Get(context.Background(), "dash:mapping", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}
