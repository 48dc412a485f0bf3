package release

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/upstream"
)

// fakeUpstream 以内存列表模拟上游，按 perPage 分页并记录调用次数。
type fakeUpstream struct {
	mu         sync.Mutex
	releases   []upstream.RawRelease
	listErr    error
	failFetch  bool
	listCalls  int
	fetchCalls int
}

func (f *fakeUpstream) LatestRelease(context.Context) (*upstream.RawRelease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.releases) == 0 {
		return nil, upstream.ErrUpstreamUnavailable
	}
	raw := f.releases[0]
	return &raw, nil
}

func (f *fakeUpstream) ListReleases(_ context.Context, page, perPage int) (upstream.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return upstream.Page{}, f.listErr
	}
	start := (page - 1) * perPage
	if start > len(f.releases) {
		start = len(f.releases)
	}
	end := start + perPage
	if end > len(f.releases) {
		end = len(f.releases)
	}
	result := upstream.Page{Releases: append([]upstream.RawRelease(nil), f.releases[start:end]...)}
	if end < len(f.releases) {
		result.NextPage = page + 1
	}
	return result, nil
}

func (f *fakeUpstream) FetchText(_ context.Context, assetURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.failFetch {
		return "", errors.New("connection reset")
	}
	return "sig:" + strings.TrimPrefix(assetURL, "https://dl.example/"), nil
}

func (f *fakeUpstream) calls() (list, fetch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.fetchCalls
}

func rawRelease(version string) upstream.RawRelease {
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tag := "app-v" + version
	return upstream.RawRelease{
		TagName:     tag,
		PublishedAt: &published,
		Body:        "notes " + version,
		Assets: []upstream.Asset{
			{Name: "App_x64.dmg", URL: "https://dl.example/" + tag + "/App_x64.dmg"},
			{Name: "App_aarch64.app.tar.gz", URL: "https://dl.example/" + tag + "/App_aarch64.app.tar.gz"},
			{Name: "App_aarch64.app.tar.gz.sig", URL: "https://dl.example/" + tag + "/App_aarch64.app.tar.gz.sig"},
		},
	}
}

func testUpstreamConfig() config.UpstreamConfig {
	return config.UpstreamConfig{
		Owner:              "alinco8",
		Repo:               "app",
		TagPrefix:          "app-v",
		BinaryAsset:        "*_aarch64.app.tar.gz",
		SignatureAsset:     "*_aarch64.app.tar.gz.sig",
		PageSize:           100,
		MaxPages:           10,
		ResolveConcurrency: 4,
	}
}
