// Package asset 封装头像等外部托管资源的上传与删除
//
// 客户端在启动时由配置显式构造并注入业务层，不使用全局状态。
package asset

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"berkeleyfind/backend/config"
)

// DefaultFolder 未配置 asset.folder 时的上传目录
const DefaultFolder = "berkeleyfind"

// ErrUnsupportedPayload 上传内容不是可识别的 data URL
var ErrUnsupportedPayload = errors.New("unsupported asset payload")

// UploadOptions 上传参数
type UploadOptions struct {
	Folder string
}

// UploadResult 上传结果
type UploadResult struct {
	SecureURL string
	PublicID  string // 服务商侧标识，删除时使用
}

// Store 资源存储接口
type Store interface {
	Upload(ctx context.Context, fileData string, opts UploadOptions) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// New 按 asset.provider 构造对应的 Store
func New(ctx context.Context, cfg *config.AssetConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "cloudinary":
		return NewCloudinaryStore(cfg.Cloudinary, logger)
	case "s3":
		return NewS3Store(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown asset provider %q", cfg.Provider)
	}
}
