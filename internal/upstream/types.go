package upstream

import "time"

// Asset 是 Release 下可下载文件的名称与下载地址。
type Asset struct {
	Name string
	URL  string
}

// RawRelease 是上游返回的 Release 记录中解析器关心的字段。
type RawRelease struct {
	TagName     string
	PublishedAt *time.Time
	Body        string
	Assets      []Asset
}

// Page 表示一页 Release 列表，NextPage 为 0 时已是最后一页。
type Page struct {
	Releases []RawRelease
	NextPage int
}
