package release

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTag 表示 tag 名缺少前缀或剩余部分不是合法的语义化版本。
	ErrMalformedTag = errors.New("malformed release tag")
	// ErrAssetNotFound 表示 Release 缺少二进制或签名资产，具体类型见 AssetNotFoundError。
	ErrAssetNotFound = errors.New("release asset not found")
	// ErrSignatureFetchFailed 表示签名文件下载失败。
	ErrSignatureFetchFailed = errors.New("signature fetch failed")
	// ErrInvalidVersionParam 表示查询参数缺失或不是合法版本，HTTP 层映射为 400。
	ErrInvalidVersionParam = errors.New("invalid version parameter")
)

// AssetKind 区分二进制与签名两类资产。
type AssetKind string

const (
	AssetBinary    AssetKind = "binary"
	AssetSignature AssetKind = "signature"
)

// AssetNotFoundError 记录缺失的资产类型与 Release tag。
type AssetNotFoundError struct {
	Kind    AssetKind
	Tag     string
	Pattern string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("%s asset matching %q not found in release %s", e.Kind, e.Pattern, e.Tag)
}

func (e *AssetNotFoundError) Is(target error) bool {
	return target == ErrAssetNotFound
}
