package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "仅支持 trace/debug/info/warn/error/fatal/panic")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	for _, origin := range g.AllowOrigins {
		if origin == "" {
			return newFieldError("Global.AllowOrigins", "不能包含空字符串")
		}
	}

	if err := c.Upstream.validate(); err != nil {
		return err
	}
	return c.Cache.validate()
}

func (u UpstreamConfig) validate() error {
	if u.Owner == "" {
		return newFieldError(sectionField("Upstream", "Owner"), "不能为空")
	}
	if u.Repo == "" {
		return newFieldError(sectionField("Upstream", "Repo"), "不能为空")
	}
	if strings.Contains(u.Owner, "/") || strings.Contains(u.Repo, "/") {
		return newFieldError(sectionField("Upstream", "Owner/Repo"), "不允许包含 /")
	}
	if u.APIURL != "" {
		if err := validateURL(u.APIURL); err != nil {
			return fmt.Errorf("%s: %w", sectionField("Upstream", "APIURL"), err)
		}
	}
	if u.BinaryAsset == "" {
		return newFieldError(sectionField("Upstream", "BinaryAsset"), "不能为空")
	}
	if _, err := glob.Compile(u.BinaryAsset); err != nil {
		return newFieldError(sectionField("Upstream", "BinaryAsset"), "不是合法的 glob 模式")
	}
	if u.SignatureAsset == "" {
		return newFieldError(sectionField("Upstream", "SignatureAsset"), "不能为空")
	}
	if _, err := glob.Compile(u.SignatureAsset); err != nil {
		return newFieldError(sectionField("Upstream", "SignatureAsset"), "不是合法的 glob 模式")
	}
	if u.PageSize <= 0 || u.PageSize > 100 {
		return newFieldError(sectionField("Upstream", "PageSize"), "必须在 1-100")
	}
	if u.MaxPages < 0 {
		return newFieldError(sectionField("Upstream", "MaxPages"), "不能为负数")
	}
	if u.ResolveConcurrency <= 0 {
		return newFieldError(sectionField("Upstream", "ResolveConcurrency"), "必须大于 0")
	}
	return nil
}

func (c CacheConfig) validate() error {
	if c.LatestTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "LatestTTL"), "必须大于 0")
	}
	if c.RangeTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "RangeTTL"), "必须大于 0")
	}
	if c.Capacity <= 0 {
		return newFieldError(sectionField("Cache", "Capacity"), "必须大于 0")
	}
	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host: %s", raw)
	}
	return nil
}
