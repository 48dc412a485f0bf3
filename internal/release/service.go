package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/release-hub/internal/cache"
	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/upstream"
)

const latestKey = "latest"

// Upstream 是 Service 依赖的上游能力集合，upstream.Client 满足该接口。
type Upstream interface {
	AssetFetcher
	Lister
	LatestRelease(ctx context.Context) (*upstream.RawRelease, error)
}

// Service 持有 latest 与区间查询两个独立缓存，进程启动时创建一次并注入 HTTP 层。
type Service struct {
	upstream Upstream
	resolver *Resolver
	ranges   *RangeQuery
	logger   *logrus.Logger

	latest       *cache.Store[string, *Release]
	descriptions *cache.Store[RangeKey, []Release]
}

// NewService 根据配置装配解析器、区间查询引擎与两个缓存实例。
func NewService(cfg *config.Config, up Upstream, logger *logrus.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if up == nil {
		return nil, errors.New("upstream is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	resolver, err := NewResolver(up, cfg.Upstream)
	if err != nil {
		return nil, err
	}
	ranges, err := NewRangeQuery(up, resolver, cfg.Upstream, logger)
	if err != nil {
		return nil, err
	}

	latest, err := cache.New[string, *Release](cache.Options{
		Name:     "latest",
		TTL:      cfg.Cache.LatestTTL.DurationValue(),
		Capacity: cfg.Cache.Capacity,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	descriptions, err := cache.New[RangeKey, []Release](cache.Options{
		Name:     "descriptions",
		TTL:      cfg.Cache.RangeTTL.DurationValue(),
		Capacity: cfg.Cache.Capacity,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		upstream:     up,
		resolver:     resolver,
		ranges:       ranges,
		logger:       logger,
		latest:       latest,
		descriptions: descriptions,
	}, nil
}

// Latest 返回最新 Release，TTL 内复用缓存结果。
func (s *Service) Latest(ctx context.Context) (*Release, error) {
	return s.latest.GetOrFill(ctx, latestKey, s.fillLatest)
}

// Describe 返回 [start, end] 内的 Release 列表，按完整参数组合缓存。
func (s *Service) Describe(ctx context.Context, start, end *semver.Version) ([]Release, error) {
	if start == nil || end == nil {
		return nil, fmt.Errorf("%w: both bounds are required", ErrInvalidVersionParam)
	}
	// 倒置区间不可能有匹配，无需回源也无需占用缓存槽位。
	if start.GreaterThan(end) {
		return []Release{}, nil
	}
	return s.descriptions.GetOrFill(ctx, NewRangeKey(start, end), func(ctx context.Context) ([]Release, error) {
		return s.ranges.ListInRange(ctx, start, end)
	})
}

// Caches 返回两个缓存的诊断快照。
func (s *Service) Caches() []cache.Stats {
	return []cache.Stats{s.latest.Stats(), s.descriptions.Stats()}
}

// Purge 清空两个缓存。
func (s *Service) Purge() {
	s.latest.Purge()
	s.descriptions.Purge()
	s.logger.WithField("action", "cache_purge").Info("caches purged")
}

func (s *Service) fillLatest(ctx context.Context) (*Release, error) {
	raw, err := s.upstream.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, *raw)
}
