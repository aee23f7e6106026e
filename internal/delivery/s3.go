package delivery

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/modules/trends/render"
)

// S3Config holds archive bucket settings. Endpoint and keys are optional and target
// S3-compatible stores such as Cloudflare R2 or MinIO.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// uploader is the part of manager.Uploader the archive uses.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archive stores every report as a JSON object for later analysis.
type S3Archive struct {
	bucket   string
	prefix   string
	uploader uploader
	newID    func() string
}

// NewS3Archive builds the S3 client from the default AWS config chain, overridden by
// static keys and a custom endpoint when given.
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archive(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

func newS3Archive(bucket, prefix string, up uploader) *S3Archive {
	return &S3Archive{
		bucket:   bucket,
		prefix:   prefix,
		uploader: up,
		newID:    uuid.NewString,
	}
}

func (a *S3Archive) Name() string { return "s3" }

// ObjectKey returns {prefix}/{yyyy}/{mm}/{yyyy-mm-dd}-{id}.json for the report.
func (a *S3Archive) ObjectKey(report *trends.Report, id string) string {
	t := report.GeneratedAt
	return path.Join(a.prefix, t.Format("2006"), t.Format("01"),
		fmt.Sprintf("%s-%s.json", t.Format(trends.DateLayout), id))
}

func (a *S3Archive) Send(ctx context.Context, report *trends.Report) error {
	data, err := render.JSON(report)
	if err != nil {
		return err
	}

	key := a.ObjectKey(report, a.newID())
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload report to s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
