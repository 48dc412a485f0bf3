package release

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Release 是对外暴露的 Release 元数据，构造后只读，可被同一缓存条目的所有读者共享。
type Release struct {
	Version   string  `json:"version"`
	PubDate   *string `json:"pub_date"`
	URL       string  `json:"url"`
	Signature string  `json:"signature"`
	Notes     string  `json:"notes"`
}

// RangeKey 是区间查询的缓存键。字段保存解析后的规范化版本，
// 因此 "1.2.0+build.7" 与 "1.2.0" 这类等价版本落在同一个缓存槽位。
type RangeKey struct {
	Start string
	End   string
}

// NewRangeKey 由已解析的上下界构造缓存键。
func NewRangeKey(start, end *semver.Version) RangeKey {
	return RangeKey{Start: canonical(start), End: canonical(end)}
}

func (k RangeKey) String() string {
	return k.Start + ".." + k.End
}

// canonical 丢弃 build metadata：版本优先级比较忽略它，缓存键也应如此。
func canonical(v *semver.Version) string {
	if v == nil {
		return ""
	}
	out := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	if pre := v.Prerelease(); pre != "" {
		out += "-" + pre
	}
	return out
}

// ParseRange 校验区间查询参数，任何问题都以 ErrInvalidVersionParam 返回。
// start > end 是合法的空区间，不在此处拒绝。
func ParseRange(startRaw, endRaw string) (*semver.Version, *semver.Version, error) {
	start, err := parseParam("start", startRaw)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseParam("end", endRaw)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func parseParam(name, raw string) (*semver.Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: param %s is required", ErrInvalidVersionParam, name)
	}
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: param %s is not a valid version", ErrInvalidVersionParam, name)
	}
	return v, nil
}
