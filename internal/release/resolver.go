package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"

	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/upstream"
)

// AssetFetcher 下载资产文本内容，由 upstream.Client 实现。
type AssetFetcher interface {
	FetchText(ctx context.Context, assetURL string) (string, error)
}

// Resolver 将上游 Release 记录转换为对外的 Release：解析版本、定位资产、下载签名。
type Resolver struct {
	fetcher          AssetFetcher
	tagPrefix        string
	binaryPattern    string
	signaturePattern string
	binary           glob.Glob
	signature        glob.Glob
}

// NewResolver 编译资产匹配模式。模式为 glob，例如 *_aarch64.app.tar.gz。
func NewResolver(fetcher AssetFetcher, cfg config.UpstreamConfig) (*Resolver, error) {
	if fetcher == nil {
		return nil, errors.New("asset fetcher is required")
	}
	binary, err := glob.Compile(cfg.BinaryAsset)
	if err != nil {
		return nil, fmt.Errorf("compile binary asset pattern: %w", err)
	}
	signature, err := glob.Compile(cfg.SignatureAsset)
	if err != nil {
		return nil, fmt.Errorf("compile signature asset pattern: %w", err)
	}
	return &Resolver{
		fetcher:          fetcher,
		tagPrefix:        cfg.TagPrefix,
		binaryPattern:    cfg.BinaryAsset,
		signaturePattern: cfg.SignatureAsset,
		binary:           binary,
		signature:        signature,
	}, nil
}

// ParseVersion 剥离 tag 前缀后按严格语义化版本解析。
func (r *Resolver) ParseVersion(tag string) (*semver.Version, error) {
	rest, ok := strings.CutPrefix(tag, r.tagPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q lacks prefix %q", ErrMalformedTag, tag, r.tagPrefix)
	}
	v, err := semver.StrictNewVersion(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformedTag, tag, err)
	}
	return v, nil
}

// Resolve 构造 Release。每次调用都会发起一次签名下载，结果应由调用方缓存。
func (r *Resolver) Resolve(ctx context.Context, raw upstream.RawRelease) (*Release, error) {
	version, err := r.ParseVersion(raw.TagName)
	if err != nil {
		return nil, err
	}

	binary, ok := findAsset(raw.Assets, r.binary)
	if !ok {
		return nil, &AssetNotFoundError{Kind: AssetBinary, Tag: raw.TagName, Pattern: r.binaryPattern}
	}
	sigAsset, ok := findAsset(raw.Assets, r.signature)
	if !ok {
		return nil, &AssetNotFoundError{Kind: AssetSignature, Tag: raw.TagName, Pattern: r.signaturePattern}
	}

	signature, err := r.fetcher.FetchText(ctx, sigAsset.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: release %s: %w", ErrSignatureFetchFailed, raw.TagName, err)
	}

	var pubDate *string
	if raw.PublishedAt != nil {
		formatted := raw.PublishedAt.UTC().Format(time.RFC3339)
		pubDate = &formatted
	}

	return &Release{
		Version:   version.String(),
		PubDate:   pubDate,
		URL:       binary.URL,
		Signature: signature,
		Notes:     raw.Body,
	}, nil
}

// findAsset 按上游顺序返回第一个匹配项。
func findAsset(assets []upstream.Asset, pattern glob.Glob) (upstream.Asset, bool) {
	for _, asset := range assets {
		if pattern.Match(asset.Name) {
			return asset, true
		}
	}
	return upstream.Asset{}, false
}
