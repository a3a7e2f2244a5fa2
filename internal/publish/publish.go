// Package publish uploads finished videos to S3.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/services"
)

// ObjectPutter is the subset of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads artifacts under a bucket prefix.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// New builds a publisher from the default AWS credential chain with the
// region and profile overrides from cfg.
func New(ctx context.Context, cfg config.Publish, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "configure", "publish.s3_bucket is not set", nil)
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "configure", "load AWS configuration", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient returns a publisher using an existing client.
func NewWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// Key returns the object key for an artifact of run runID.
func (p *Publisher) Key(runID, artifact string) string {
	return path.Join(p.prefix, runID, filepath.Base(artifact))
}

// Publish uploads artifact and returns its s3:// location.
func (p *Publisher) Publish(ctx context.Context, runID, artifact string) (string, error) {
	file, err := os.Open(artifact)
	if err != nil {
		return "", services.Wrap(services.ErrAssetNotFound, "publish", filepath.Base(artifact), "open artifact", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publish", filepath.Base(artifact), "stat artifact", err)
	}

	key := p.Key(runID, artifact)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(artifact)),
	})
	if err != nil {
		msg := "upload artifact"
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			msg = fmt.Sprintf("upload artifact (%s)", apiErr.ErrorCode())
		}
		return "", services.Wrap(services.ErrExternalTool, "publish", key, msg, err)
	}

	location := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	p.logger.Info("artifact published",
		logging.String("location", location),
		logging.Int64("bytes", info.Size()),
		logging.String(logging.FieldEventType, "publish_complete"),
	)
	return location, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
