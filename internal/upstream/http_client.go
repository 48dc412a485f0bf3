package upstream

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/any-hub/release-hub/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewHTTPClient 返回所有上游请求共享的 http.Client；配置了 token 时仅对 GitHub
// 自身的主机附加 Authorization 头，资产下载重定向到的 CDN 不会收到 token。
func NewHTTPClient(cfg *config.Config) *http.Client {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Global.UpstreamTimeout.DurationValue() > 0 {
		timeout = cfg.Global.UpstreamTimeout.DurationValue()
	}

	var transport http.RoundTripper = defaultTransport.Clone()
	if cfg != nil && cfg.Upstream.HasCredentials() {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Upstream.Token})
		transport = &hostScopedTransport{
			hosts: credentialHosts(cfg.Upstream.APIURL),
			authed: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, source),
				Base:   transport,
			},
			base: transport,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// hostScopedTransport 只对白名单主机走 oauth2 Transport，其余主机直接使用 base。
type hostScopedTransport struct {
	hosts  map[string]struct{}
	authed http.RoundTripper
	base   http.RoundTripper
}

func (t *hostScopedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := t.hosts[strings.ToLower(req.URL.Host)]; ok {
		return t.authed.RoundTrip(req)
	}
	return t.base.RoundTrip(req)
}

// credentialHosts 返回可以携带 token 的主机：API 主机，默认 API 时额外包含 github.com
// （私有仓库的 browser_download_url 需要鉴权）。
func credentialHosts(apiURL string) map[string]struct{} {
	hosts := map[string]struct{}{}
	host := "api.github.com"
	if raw := strings.TrimSpace(apiURL); raw != "" {
		if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
			host = strings.ToLower(parsed.Host)
		}
	}
	hosts[host] = struct{}{}
	if host == "api.github.com" {
		hosts["github.com"] = struct{}{}
	}
	return hosts
}
