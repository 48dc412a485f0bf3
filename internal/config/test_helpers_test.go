package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// minimalUpstream 是通过校验所需的最小 [Upstream] 段。
const minimalUpstream = `
[Upstream]
Owner = "alinco8"
Repo = "app"
`

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

// writeTempConfig 将 TOML 片段写入临时目录，返回文件路径。
func writeTempConfig(t *testing.T, sections ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.TrimSpace(strings.Join(sections, "\n")) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
