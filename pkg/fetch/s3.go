package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	pkgerrors "github.com/pkg/errors"
)

// ObjectGetter S3 GetObject 能力，*s3.Client 满足该接口
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Settings S3 连接参数，全部可选
type S3Settings struct {
	Region    string
	Endpoint  string // 非空时使用 path-style 访问，兼容 MinIO 等 S3 兼容存储
	AccessKey string
	SecretKey string
}

// NewS3Client 按设置创建 S3 客户端，未提供静态凭证时使用默认凭证链
func NewS3Client(ctx context.Context, settings S3Settings) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, config.WithRegion(settings.Region))
	}
	if settings.AccessKey != "" && settings.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load AWS config")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3Location 拆分 s3://bucket/key
func ParseS3Location(location string) (bucket, key string, err error) {
	rest := location
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q, expected s3://bucket/key", location)
	}
	return bucket, key, nil
}

func (f *Fetcher) getObject(ctx context.Context, location string, timeout time.Duration) ([]byte, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	if f.s3 == nil {
		client, err := NewS3Client(ctx, f.s3Settings)
		if err != nil {
			return nil, err
		}
		f.s3 = client
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read s3://%s/%s", bucket, key)
	}
	return data, nil
}
