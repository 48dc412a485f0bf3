package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/metrics"
)

// DefaultCapacity 是未显式配置时每个缓存实例的条目上限。
const DefaultCapacity = 10000

// FillFunc 在缓存未命中时计算新值。传入的 ctx 不会随单个调用方取消。
type FillFunc[V any] func(ctx context.Context) (V, error)

// Options 描述单个缓存实例的 TTL、容量与可注入的时钟。
type Options struct {
	// Name 用于日志与指标的 cache 标签，例如 latest / ranges。
	Name string
	// TTL 从写入时刻起计算，读取不会续期。
	TTL time.Duration
	// Capacity 超出后按 LRU 淘汰，仅作为内存保护。
	Capacity int
	Logger   *logrus.Logger
	// Now 默认 time.Now，测试可替换为可控时钟。
	Now func() time.Time
}

// Stats 是 /-/caches 诊断接口输出的快照。
type Stats struct {
	Name       string `json:"name"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Capacity   int    `json:"capacity"`
	Entries    int    `json:"entries"`
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Store 是按 key 单飞（single-flight）的读穿缓存：命中直接返回，未命中时同一 key
// 只会有一个 FillFunc 在执行，成功结果写入缓存，失败结果从不写入。
type Store[K comparable, V any] struct {
	name     string
	ttl      time.Duration
	capacity int
	now      func() time.Time
	logger   *logrus.Logger

	entries *expirable.LRU[K, entry[V]]
	flights singleflight.Group
}

// New 构建缓存实例。调用方应在启动阶段为每个 key 空间创建一次并复用。
func New[K comparable, V any](opts Options) (*Store[K, V], error) {
	if opts.Name == "" {
		return nil, errors.New("cache name required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache %s: ttl must be positive", opts.Name)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Store[K, V]{
		name:     opts.Name,
		ttl:      opts.TTL,
		capacity: opts.Capacity,
		now:      opts.Now,
		logger:   opts.Logger,
		entries:  expirable.NewLRU[K, entry[V]](opts.Capacity, nil, opts.TTL),
	}, nil
}

// GetOrFill 返回 key 对应的未过期值；否则加入（或发起）该 key 的唯一一次 fill。
// 调用方 ctx 取消时立即返回 ctx.Err()，但共享的 fill 会继续执行并写入缓存，
// 以免拖累同一 key 上的其他等待者。
func (s *Store[K, V]) GetOrFill(ctx context.Context, key K, fill FillFunc[V]) (V, error) {
	var zero V
	if value, ok := s.lookup(key); ok {
		metrics.CacheLookups.WithLabelValues(s.name, "hit").Inc()
		return value, nil
	}
	metrics.CacheLookups.WithLabelValues(s.name, "miss").Inc()

	// %#v 会为字符串字段加引号，避免 {"a b","c"} 与 {"a","b c"} 这类不同 key 共用一次 flight。
	flightKey := fmt.Sprintf("%#v", key)
	logKey := fmt.Sprint(key)
	fillCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(flightKey, func() (any, error) {
		// 上一轮 flight 可能刚在本次 lookup 之后写入。
		if value, ok := s.lookup(key); ok {
			return value, nil
		}
		value, err := fill(fillCtx)
		if err != nil {
			metrics.CacheFills.WithLabelValues(s.name, "failed").Inc()
			s.logger.WithFields(logging.FillFields(s.name, logKey, "failed")).
				WithError(err).Debug("cache_fill_failed")
			return nil, err
		}
		s.entries.Add(key, entry[V]{value: value, insertedAt: s.now()})
		metrics.CacheFills.WithLabelValues(s.name, "stored").Inc()
		s.logger.WithFields(logging.FillFields(s.name, logKey, "stored")).Debug("cache_fill_stored")
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	}
}

// Get 仅查询缓存，不触发 fill。
func (s *Store[K, V]) Get(key K) (V, bool) {
	return s.lookup(key)
}

// Purge 清空所有条目，进行中的 fill 完成后仍会写入。
func (s *Store[K, V]) Purge() {
	s.entries.Purge()
}

// Len 返回当前条目数（可能包含尚未被清理的过期条目）。
func (s *Store[K, V]) Len() int {
	return s.entries.Len()
}

// Stats 返回诊断快照。
func (s *Store[K, V]) Stats() Stats {
	return Stats{
		Name:       s.name,
		TTLSeconds: int64(s.ttl / time.Second),
		Capacity:   s.capacity,
		Entries:    s.entries.Len(),
	}
}

func (s *Store[K, V]) lookup(key K) (V, bool) {
	var zero V
	cached, ok := s.entries.Get(key)
	if !ok {
		return zero, false
	}
	// 过期条目留给下一次成功的 fill 覆盖，避免与并发写入相互踩踏。
	if s.now().Sub(cached.insertedAt) >= s.ttl {
		return zero, false
	}
	return cached.value, true
}
