package main

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/any-hub/release-hub/internal/config"
	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/upstream/upstreamtest"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("RELEASE_HUB_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
}

func TestParseCLIFlagsDefaultPath(t *testing.T) {
	t.Setenv("RELEASE_HUB_CONFIG", "")
	opts, err := parseCLIFlags([]string{"--check-config"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "config.toml" || !opts.checkOnly {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseCLIFlagsRejectsUnknown(t *testing.T) {
	if _, err := parseCLIFlags([]string{"--nope"}); err == nil {
		t.Fatalf("未知参数应返回错误")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d: %s", code, stdErrBuffer().String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
	if !strings.Contains(stdErrBuffer().String(), "加载配置失败") {
		t.Fatalf("stderr 应包含失败原因: %s", stdErrBuffer().String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "release-hub") {
		t.Fatalf("version 输出应包含 release-hub 标识")
	}
}

func TestBuildAppServesReleasesAndDiagnostics(t *testing.T) {
	stub := upstreamtest.NewServer(t, upstreamtest.Release{Tag: "app-v1.2.0"})
	configPath := writeConfigFile(t, `
ListenPort = 8000

[Upstream]
Owner = "`+stub.Owner+`"
Repo = "`+stub.Repo+`"
APIURL = "`+stub.APIURL()+`"
`)
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	app, err := buildApp(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/releases/latest", nil))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	var latest map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if latest["version"] != "1.2.0" || latest["signature"] != upstreamtest.SignatureFor("app-v1.2.0") {
		t.Fatalf("unexpected latest payload: %v", latest)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/caches", nil))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"name":"latest"`) || !strings.Contains(string(body), `"entries":1`) {
		t.Fatalf("unexpected caches payload: %s", string(body))
	}
}
