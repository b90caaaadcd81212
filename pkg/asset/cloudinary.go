package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"berkeleyfind/backend/config"
)

// cloudinaryUploader Cloudinary 上传 API 中用到的部分
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore 基于 Cloudinary 的 Store 实现
type CloudinaryStore struct {
	api    cloudinaryUploader
	logger *zap.Logger
}

// NewCloudinaryStore 使用凭据构造 Cloudinary 客户端
func NewCloudinaryStore(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("初始化 Cloudinary 客户端失败: %w", err)
	}
	return &CloudinaryStore{api: &cld.Upload, logger: logger}, nil
}

// Upload 上传 data URL 或远程地址，Cloudinary 均可直接接收
func (s *CloudinaryStore) Upload(ctx context.Context, fileData string, opts UploadOptions) (*UploadResult, error) {
	if fileData == "" {
		return nil, ErrUnsupportedPayload
	}

	resp, err := s.api.Upload(ctx, fileData, uploader.UploadParams{Folder: opts.Folder})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return nil, errors.New("cloudinary upload: empty result")
	}

	s.logger.Debug("资源上传成功", zap.String("public_id", resp.PublicID))
	return &UploadResult{SecureURL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// Destroy 删除已上传资源；资源已不存在视为成功
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	resp, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: unexpected result %q", resp.Result)
	}
	return nil
}
