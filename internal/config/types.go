package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration 由 durationDecodeHook 解码，兼容纯秒数值与 Go Duration 字符串。
type Duration time.Duration

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级运行参数：监听端口、日志与上游超时。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	AllowOrigins    []string `mapstructure:"AllowOrigins"`
}

// UpstreamConfig 定义被代理的 GitHub 项目以及 Release 资产的识别规则。
type UpstreamConfig struct {
	Owner  string `mapstructure:"Owner"`
	Repo   string `mapstructure:"Repo"`
	Token  string `mapstructure:"Token"`
	APIURL string `mapstructure:"APIURL"`
	// TagPrefix 在解析版本号前从 tag 名中剥离，例如 app-v1.2.3 → 1.2.3。
	TagPrefix string `mapstructure:"TagPrefix"`
	// BinaryAsset/SignatureAsset 为 glob 模式，按上游返回顺序取第一个匹配项。
	BinaryAsset    string `mapstructure:"BinaryAsset"`
	SignatureAsset string `mapstructure:"SignatureAsset"`
	PageSize       int    `mapstructure:"PageSize"`
	// MaxPages 限制区间查询最多翻阅的列表页数，0 表示翻到最后一页。
	MaxPages           int `mapstructure:"MaxPages"`
	ResolveConcurrency int `mapstructure:"ResolveConcurrency"`
}

// CacheConfig 控制两个内存缓存（latest 与版本区间）的 TTL 与容量上限。
type CacheConfig struct {
	LatestTTL Duration `mapstructure:"LatestTTL"`
	RangeTTL  Duration `mapstructure:"RangeTTL"`
	Capacity  int      `mapstructure:"Capacity"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig   `mapstructure:",squash"`
	Upstream UpstreamConfig `mapstructure:"Upstream"`
	Cache    CacheConfig    `mapstructure:"Cache"`
}

// HasCredentials 表示是否配置了访问上游 API 的 token。
func (u UpstreamConfig) HasCredentials() bool {
	return strings.TrimSpace(u.Token) != ""
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供日志字段使用。
func (u UpstreamConfig) AuthMode() string {
	if u.HasCredentials() {
		return "credentialed"
	}
	return "anonymous"
}

// Project 返回 owner/repo 形式的项目标识。
func (u UpstreamConfig) Project() string {
	return fmt.Sprintf("%s/%s", u.Owner, u.Repo)
}
