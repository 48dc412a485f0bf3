// Package upstreamtest provides an in-process GitHub Releases stub for tests.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	BinaryAssetName    = "App_aarch64.app.tar.gz"
	SignatureAssetName = "App_aarch64.app.tar.gz.sig"
)

// Release 描述 stub 中的一条 Release，列表顺序即上游返回顺序（最新在前）。
type Release struct {
	Tag           string
	Body          string
	PublishedAt   time.Time
	SkipBinary    bool
	SkipSignature bool
}

// Server 模拟 GitHub Releases API 与资产下载，并记录调用次数。
type Server struct {
	*httptest.Server
	Owner string
	Repo  string

	mu             sync.Mutex
	releases       []Release
	latestCalls    int
	listCalls      int
	signatureCalls int
	authorization  string
	failLatest     bool
	failSignature  bool
}

// NewServer 启动 stub，测试结束时自动关闭。
func NewServer(t *testing.T, releases ...Release) *Server {
	t.Helper()

	s := &Server{
		Owner:    "alinco8",
		Repo:     "app",
		releases: releases,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases/latest", s.handleLatest)
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases", s.handleList)
	mux.HandleFunc("GET /download/{tag}/{name}", s.handleDownload)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authorization = r.Header.Get("Authorization")
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// APIURL 返回可写入 Upstream.APIURL 的地址。
func (s *Server) APIURL() string {
	return s.URL + "/"
}

// SetReleases 替换 stub 中的 Release 列表。
func (s *Server) SetReleases(releases ...Release) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = releases
}

// FailLatest 让 latest 接口返回 503。
func (s *Server) FailLatest(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLatest = fail
}

// FailSignature 让签名下载返回 500。
func (s *Server) FailSignature(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSignature = fail
}

func (s *Server) LatestCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestCalls
}

func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *Server) SignatureCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signatureCalls
}

// Authorization 返回最近一次请求携带的 Authorization 头。
func (s *Server) Authorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorization
}

// SignatureFor 返回 stub 为 tag 生成的签名内容。
func SignatureFor(tag string) string {
	return "sig-" + tag
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if !s.matchRepo(w, r) {
		return
	}
	s.mu.Lock()
	s.latestCalls++
	fail := s.failLatest
	releases := append([]Release(nil), s.releases...)
	s.mu.Unlock()

	if fail {
		http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	if len(releases) == 0 {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.encode(releases[0]))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.matchRepo(w, r) {
		return
	}
	s.mu.Lock()
	s.listCalls++
	releases := append([]Release(nil), s.releases...)
	s.mu.Unlock()

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 30)
	start := (page - 1) * perPage
	if start > len(releases) {
		start = len(releases)
	}
	end := start + perPage
	if end > len(releases) {
		end = len(releases)
	}

	if end < len(releases) {
		next := fmt.Sprintf("%s/repos/%s/%s/releases?page=%d&per_page=%d", s.URL, s.Owner, s.Repo, page+1, perPage)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
	}

	payload := make([]map[string]any, 0, end-start)
	for _, release := range releases[start:end] {
		payload = append(payload, s.encode(release))
	}
	s.writeJSON(w, payload)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	name := r.PathValue("name")
	if strings.HasSuffix(name, ".sig") {
		s.mu.Lock()
		s.signatureCalls++
		fail := s.failSignature
		s.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(SignatureFor(tag)))
		return
	}
	_, _ = w.Write([]byte("binary-" + tag))
}

func (s *Server) matchRepo(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("owner") != s.Owner || r.PathValue("repo") != s.Repo {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) encode(release Release) map[string]any {
	assets := []map[string]any{
		{"name": "App_x64.dmg", "browser_download_url": s.assetURL(release.Tag, "App_x64.dmg")},
	}
	if !release.SkipBinary {
		assets = append(assets, map[string]any{
			"name":                 BinaryAssetName,
			"browser_download_url": s.assetURL(release.Tag, BinaryAssetName),
		})
	}
	if !release.SkipSignature {
		assets = append(assets, map[string]any{
			"name":                 SignatureAssetName,
			"browser_download_url": s.assetURL(release.Tag, SignatureAssetName),
		})
	}

	payload := map[string]any{
		"tag_name": release.Tag,
		"body":     release.Body,
		"assets":   assets,
	}
	if !release.PublishedAt.IsZero() {
		payload["published_at"] = release.PublishedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func (s *Server) assetURL(tag, name string) string {
	return fmt.Sprintf("%s/download/%s/%s", s.URL, tag, name)
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
