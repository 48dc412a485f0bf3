package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/metrics"
)

// maxAssetTextBytes 限制以文本读取的资产大小，签名文件通常只有几百字节。
const maxAssetTextBytes = 1 << 20

// Client 封装 GitHub Releases API 与资产下载，所有请求共享同一个 http.Client 与凭证。
type Client struct {
	gh     *github.Client
	http   *http.Client
	owner  string
	repo   string
	logger *logrus.Logger
}

// NewClient 根据配置构建上游客户端。httpClient 为空时按配置创建。
func NewClient(cfg *config.Config, httpClient *http.Client, logger *logrus.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	gh := github.NewClient(httpClient)
	if raw := strings.TrimSpace(cfg.Upstream.APIURL); raw != "" {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		base, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream api url: %w", err)
		}
		gh.BaseURL = base
	}

	return &Client{
		gh:     gh,
		http:   httpClient,
		owner:  cfg.Upstream.Owner,
		repo:   cfg.Upstream.Repo,
		logger: logger,
	}, nil
}

// LatestRelease 获取项目的最新正式 Release。
func (c *Client) LatestRelease(ctx context.Context) (*RawRelease, error) {
	started := time.Now()
	release, _, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	c.observe("latest_release", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: get latest release of %s/%s: %w", ErrUpstreamUnavailable, c.owner, c.repo, err)
	}
	raw := convertRelease(release)
	return &raw, nil
}

// ListReleases 获取第 page 页（从 1 开始）的 Release 列表，顺序与上游一致。
func (c *Client) ListReleases(ctx context.Context, page, perPage int) (Page, error) {
	started := time.Now()
	releases, resp, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
	c.observe("list_releases", started, err)
	if err != nil {
		return Page{}, fmt.Errorf("%w: list releases of %s/%s (page %d): %w", ErrUpstreamUnavailable, c.owner, c.repo, page, err)
	}

	result := Page{Releases: make([]RawRelease, 0, len(releases))}
	for _, release := range releases {
		result.Releases = append(result.Releases, convertRelease(release))
	}
	if resp != nil {
		result.NextPage = resp.NextPage
	}
	return result, nil
}

// FetchText 下载资产并按纯文本返回，用于读取签名文件。
func (c *Client) FetchText(ctx context.Context, assetURL string) (string, error) {
	started := time.Now()
	body, err := c.fetch(ctx, assetURL)
	c.observe("fetch_asset", started, err)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"action": "fetch_asset",
			"url":    assetURL,
		}).WithError(err).Warn("upstream_asset_failed")
		return "", err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, assetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build asset request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxAssetTextBytes))
		return "", &StatusError{URL: assetURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetTextBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read asset body: %w", ErrUpstreamUnavailable, err)
	}
	return string(data), nil
}

func (c *Client) observe(operation string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
	metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func convertRelease(release *github.RepositoryRelease) RawRelease {
	raw := RawRelease{
		TagName: release.GetTagName(),
		Body:    release.GetBody(),
	}
	if release.PublishedAt != nil {
		published := release.PublishedAt.Time
		raw.PublishedAt = &published
	}
	for _, asset := range release.Assets {
		if asset == nil {
			continue
		}
		raw.Assets = append(raw.Assets, Asset{
			Name: asset.GetName(),
			URL:  asset.GetBrowserDownloadURL(),
		})
	}
	return raw
}
