package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/any-hub/release-hub/internal/cache"
	"github.com/any-hub/release-hub/internal/version"
)

// CacheAdmin 是诊断路由所需的缓存管理能力。
type CacheAdmin interface {
	Caches() []cache.Stats
	Purge()
}

type cachesPayload struct {
	Caches []cache.Stats `json:"caches"`
}

// RegisterDiagnosticsRoutes 暴露 /-/caches、/-/metrics 与 /-/version 诊断接口。
func RegisterDiagnosticsRoutes(app *fiber.App, admin CacheAdmin) {
	if app == nil || admin == nil {
		return
	}

	app.Get("/-/caches", func(c fiber.Ctx) error {
		return c.JSON(cachesPayload{Caches: admin.Caches()})
	})

	// 清空全部缓存，下一次请求会重新回源。
	app.Delete("/-/caches", func(c fiber.Ctx) error {
		admin.Purge()
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/-/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/-/version", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version": version.Version,
			"commit":  version.Commit,
			"full":    version.Full(),
		})
	})
}
