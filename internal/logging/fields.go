package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供路由/请求 ID/状态码字段，供 HTTP 请求日志复用。
func RequestFields(route, requestID string, status int, elapsedMs int64) logrus.Fields {
	fields := logrus.Fields{
		"action":     "request",
		"route":      route,
		"status":     status,
		"elapsed_ms": elapsedMs,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// FillFields 描述一次缓存回源填充，cache 为缓存实例名，key 为渲染后的缓存键。
func FillFields(cache, key, outcome string) logrus.Fields {
	return logrus.Fields{
		"action":  "cache_fill",
		"cache":   cache,
		"key":     key,
		"outcome": outcome,
	}
}

// UpstreamFields 提供上游项目与鉴权模式字段。
func UpstreamFields(project, authMode string) logrus.Fields {
	return logrus.Fields{
		"project":   project,
		"auth_mode": authMode,
	}
}
