package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hospital-management-api/internal/delivery/dto"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 30 * time.Second
)

// StatsCache keeps the dashboard counters in Redis for a short TTL so
// repeated dashboard loads do not hit the database. A cache miss or a Redis
// fault simply falls through to the counting queries.
type StatsCache interface {
	Get(ctx context.Context) (*dto.DashboardStatsResponse, bool)
	Set(ctx context.Context, stats *dto.DashboardStatsResponse)
	Invalidate(ctx context.Context)
}

type statsCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewStatsCache(redisClient *redis.Client, log *logrus.Logger) StatsCache {
	return &statsCache{
		redisClient: redisClient,
		log:         log,
	}
}

// Get returns the cached stats, or (nil, false) on miss or Redis failure.
func (s *statsCache) Get(ctx context.Context) (*dto.DashboardStatsResponse, bool) {
	raw, err := s.redisClient.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warnf("Failed to read dashboard stats cache: %+v", err)
		}
		return nil, false
	}

	var stats dto.DashboardStatsResponse
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.log.Warnf("Failed to decode dashboard stats cache: %+v", err)
		return nil, false
	}

	return &stats, true
}

// Set stores the stats with a short TTL. Errors are logged, not returned:
// the cache is an optimization, never an authority.
func (s *statsCache) Set(ctx context.Context, stats *dto.DashboardStatsResponse) {
	raw, err := json.Marshal(stats)
	if err != nil {
		s.log.Warnf("Failed to encode dashboard stats: %+v", err)
		return
	}

	if err := s.redisClient.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
		s.log.Warnf("Failed to write dashboard stats cache: %+v", err)
	}
}

// Invalidate drops the cached stats. Called after mutations that change the
// counters so the next dashboard load recomputes them.
func (s *statsCache) Invalidate(ctx context.Context) {
	if err := s.redisClient.Del(ctx, statsCacheKey).Err(); err != nil {
		s.log.Warnf("Failed to invalidate dashboard stats cache: %+v", err)
	}
}
