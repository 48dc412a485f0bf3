package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/release-hub/internal/release"
	"github.com/any-hub/release-hub/internal/upstream"
)

type releaseHandlers struct {
	service ReleaseService
	logger  *logrus.Logger
}

func (h *releaseHandlers) latest(c fiber.Ctx) error {
	rel, err := h.service.Latest(requestContext(c))
	if err != nil {
		return h.writeError(c, "latest", err)
	}
	return c.JSON(rel)
}

func (h *releaseHandlers) descriptions(c fiber.Ctx) error {
	start, end, err := release.ParseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return h.writeError(c, "descriptions", err)
	}
	releases, err := h.service.Describe(requestContext(c), start, end)
	if err != nil {
		return h.writeError(c, "descriptions", err)
	}
	if releases == nil {
		releases = []release.Release{}
	}
	return c.JSON(releases)
}

// writeError 是领域错误到 HTTP 状态码的唯一映射点。
func (h *releaseHandlers) writeError(c fiber.Ctx, operation string, err error) error {
	status, code := classifyError(err)
	fields := logrus.Fields{
		"action":     operation,
		"request_id": RequestID(c),
		"status":     status,
		"error_code": code,
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.WithFields(fields).WithError(err).Error("release_request_failed")
	} else {
		h.logger.WithFields(fields).WithError(err).Warn("release_request_rejected")
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": err.Error(),
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, release.ErrInvalidVersionParam):
		return fiber.StatusBadRequest, "invalid_version_param"
	case errors.Is(err, release.ErrSignatureFetchFailed):
		return fiber.StatusBadGateway, "signature_fetch_failed"
	case errors.Is(err, upstream.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, release.ErrAssetNotFound):
		return fiber.StatusInternalServerError, "asset_not_found"
	case errors.Is(err, release.ErrMalformedTag):
		return fiber.StatusInternalServerError, "malformed_tag"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "request_cancelled"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

func requestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
