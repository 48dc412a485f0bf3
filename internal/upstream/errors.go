package upstream

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable 表示上游 API 或资产下载失败（网络错误、非 2xx 状态等）。
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// StatusError 记录上游返回的非成功状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is 让 errors.Is(err, ErrUpstreamUnavailable) 对状态码错误同样成立。
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
