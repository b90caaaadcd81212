package asset

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/xid"
	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"

	"berkeleyfind/backend/config"
)

// s3API S3 客户端中用到的部分
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store 基于 S3 兼容对象存储的 Store 实现
// PublicID 即对象 Key
type S3Store struct {
	client        s3API
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// NewS3Store 构造 S3 客户端；配置了 BaseEndpoint 时使用 path-style（MinIO）
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, publicBaseURL: base, logger: logger}, nil
}

// Upload 解码 data URL 并写入对象存储
func (s *S3Store) Upload(ctx context.Context, fileData string, opts UploadOptions) (*UploadResult, error) {
	du, err := dataurl.DecodeString(fileData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
	}

	contentType := du.ContentType()
	key := objectKey(opts.Folder, du.Subtype)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(du.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}

	s.logger.Debug("资源上传成功", zap.String("key", key), zap.Int("size", len(du.Data)))
	return &UploadResult{SecureURL: s.publicBaseURL + "/" + key, PublicID: key}, nil
}

// Destroy 删除对象；S3 对不存在的 Key 同样返回成功
func (s *S3Store) Destroy(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// objectKey 生成 folder/<xid>.<ext>
func objectKey(folder, subtype string) string {
	name := xid.New().String()
	if ext := strings.TrimSpace(subtype); ext != "" {
		// image/svg+xml → svg
		if i := strings.IndexByte(ext, '+'); i > 0 {
			ext = ext[:i]
		}
		name += "." + ext
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
