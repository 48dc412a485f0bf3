package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyUpstreamDefaults(&cfg.Upstream)
	applyCacheDefaults(&cfg.Cache)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("AllowOrigins", []string{"*"})

	v.SetDefault("Upstream.TagPrefix", "app-v")
	v.SetDefault("Upstream.BinaryAsset", "*_aarch64.app.tar.gz")
	v.SetDefault("Upstream.SignatureAsset", "*_aarch64.app.tar.gz.sig")
	v.SetDefault("Upstream.PageSize", 100)
	v.SetDefault("Upstream.MaxPages", 10)
	v.SetDefault("Upstream.ResolveConcurrency", 4)

	v.SetDefault("Cache.LatestTTL", "60s")
	v.SetDefault("Cache.RangeTTL", "1h")
	v.SetDefault("Cache.Capacity", 10000)
}

// bindEnv 允许通过环境变量覆盖端口与 token，token 不应写入配置文件。
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("Upstream.Token", "RELEASE_HUB_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("绑定环境变量失败: %w", err)
	}
	if err := v.BindEnv("ListenPort", "RELEASE_HUB_PORT", "PORT"); err != nil {
		return fmt.Errorf("绑定环境变量失败: %w", err)
	}
	return nil
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8000
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	for i := range g.AllowOrigins {
		g.AllowOrigins[i] = strings.TrimSpace(g.AllowOrigins[i])
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	u.Owner = strings.TrimSpace(u.Owner)
	u.Repo = strings.TrimSpace(u.Repo)
	u.Token = strings.TrimSpace(u.Token)
	if u.PageSize == 0 {
		u.PageSize = 100
	}
	if u.ResolveConcurrency == 0 {
		u.ResolveConcurrency = 4
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.LatestTTL.DurationValue() == 0 {
		c.LatestTTL = Duration(time.Minute)
	}
	if c.RangeTTL.DurationValue() == 0 {
		c.RangeTTL = Duration(time.Hour)
	}
	if c.Capacity == 0 {
		c.Capacity = 10000
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
