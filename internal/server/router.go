package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/release-hub/internal/cache"
	"github.com/any-hub/release-hub/internal/logging"
	"github.com/any-hub/release-hub/internal/release"
)

// ReleaseService describes the cache-backed release operations the handlers
// depend on. It allows injecting fake services during tests.
type ReleaseService interface {
	Latest(ctx context.Context) (*release.Release, error)
	Describe(ctx context.Context, start, end *semver.Version) ([]release.Release, error)
	Caches() []cache.Stats
	Purge()
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger       *logrus.Logger
	Service      ReleaseService
	ListenPort   int
	AllowOrigins []string
}

const contextKeyRequestID = "_releasehub_request_id"

// NewApp builds a Fiber application with request ID/CORS middleware, the
// release endpoints and structured error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Service == nil {
		return nil, errors.New("release service is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions},
	}))

	handlers := &releaseHandlers{service: opts.Service, logger: opts.Logger}
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Hello!")
	})
	app.Get("/releases/latest", handlers.latest)
	app.Get("/releases/descriptions", handlers.descriptions)

	return app, nil
}

// requestContextMiddleware 生成请求 ID 并在请求结束后输出一条结构化访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		fields := logging.RequestFields(
			string(c.Request().URI().Path()),
			reqID,
			c.Response().StatusCode(),
			time.Since(started).Milliseconds(),
		)
		if err != nil {
			logger.WithFields(fields).WithError(err).Error("request_failed")
			return err
		}
		logger.WithFields(fields).Info("request_complete")
		return nil
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
