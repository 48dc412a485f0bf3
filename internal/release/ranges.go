package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/upstream"
)

// Lister 按页列出上游 Release，由 upstream.Client 实现。
type Lister interface {
	ListReleases(ctx context.Context, page, perPage int) (upstream.Page, error)
}

// RangeQuery 列出版本落在 [start, end] 内的 Release，保持上游列表顺序。
type RangeQuery struct {
	lister      Lister
	resolver    *Resolver
	pageSize    int
	maxPages    int
	concurrency int
	logger      *logrus.Logger
}

// NewRangeQuery 使用 cfg 中的分页与并发参数构造区间查询引擎。
func NewRangeQuery(lister Lister, resolver *Resolver, cfg config.UpstreamConfig, logger *logrus.Logger) (*RangeQuery, error) {
	if lister == nil {
		return nil, errors.New("release lister is required")
	}
	if resolver == nil {
		return nil, errors.New("release resolver is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	q := &RangeQuery{
		lister:      lister,
		resolver:    resolver,
		pageSize:    cfg.PageSize,
		maxPages:    cfg.MaxPages,
		concurrency: cfg.ResolveConcurrency,
		logger:      logger,
	}
	if q.pageSize <= 0 {
		q.pageSize = 100
	}
	if q.concurrency <= 0 {
		q.concurrency = 1
	}
	return q, nil
}

// ListInRange 的上下界均包含在内，比较遵循 semver.org 优先级规则。
// 任一匹配 Release 解析失败则整个查询失败，不返回部分结果。
func (q *RangeQuery) ListInRange(ctx context.Context, start, end *semver.Version) ([]Release, error) {
	matches, err := q.collect(ctx, start, end)
	if err != nil {
		return nil, err
	}

	resolved := make([]*Release, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)
	for i, raw := range matches {
		g.Go(func() error {
			rel, err := q.resolver.Resolve(gctx, raw)
			if err != nil {
				return err
			}
			resolved[i] = rel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Release, 0, len(resolved))
	for _, rel := range resolved {
		out = append(out, *rel)
	}
	return out, nil
}

// collect 翻页读取上游列表并过滤出区间内的记录。
func (q *RangeQuery) collect(ctx context.Context, start, end *semver.Version) ([]upstream.RawRelease, error) {
	var matches []upstream.RawRelease
	page := 1
	for read := 0; q.maxPages == 0 || read < q.maxPages; read++ {
		result, err := q.lister.ListReleases(ctx, page, q.pageSize)
		if err != nil {
			return nil, err
		}
		for _, raw := range result.Releases {
			version, err := q.resolver.ParseVersion(raw.TagName)
			if err != nil {
				q.logger.WithFields(logrus.Fields{
					"action": "range_filter",
					"tag":    raw.TagName,
				}).Debug("skip_unparsable_tag")
				continue
			}
			if inRange(version, start, end) {
				matches = append(matches, raw)
			}
		}
		if result.NextPage == 0 {
			return matches, nil
		}
		page = result.NextPage
	}

	q.logger.WithFields(logrus.Fields{
		"action":    "range_filter",
		"max_pages": q.maxPages,
		"range":     fmt.Sprintf("%s..%s", start, end),
	}).Warn("range_page_limit_reached")
	return matches, nil
}

func inRange(v, start, end *semver.Version) bool {
	return v.Compare(start) >= 0 && v.Compare(end) <= 0
}
