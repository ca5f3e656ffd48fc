package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type memoryCacheRepo struct {
	values  map[string][]byte
	ttls    map[string]time.Duration
	deleted []string
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	payload, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = payload
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := svc.Get(ctx, "cohort:ICCI111", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "cohort:ICCI111", map[string]int{"total": 3}, 0))
	assert.Equal(t, time.Minute, repo.ttls["cohort:ICCI111"])

	hit, err = svc.Get(ctx, "cohort:ICCI111", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, dest["total"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	var dest map[string]int
	hit, err := svc.Get(context.Background(), "cohort:x", &dest)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	require.NoError(t, svc.Invalidate(ctx, CohortCachePattern))
	assert.Empty(t, repo.values)
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, true)
	require.NoError(t, svc.Invalidate(context.Background(), CohortCachePattern))
	assert.Equal(t, []string{"cohort:*"}, repo.deleted)
}
