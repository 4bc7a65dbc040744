package artifacts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/config"
)

// S3Client talks to the artifact bucket on AWS S3 or any S3-compatible
// store (MinIO, R2). It implements ObjectStore.
type S3Client struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
	prefix     string
	log        zerolog.Logger
}

// NewS3Client builds a bucket client from the sync configuration. Static
// credentials win when configured; otherwise the SDK's default chain
// (environment, shared config, instance role) applies.
func NewS3Client(ctx context.Context, cfg *config.ArtifactSyncConfig, log zerolog.Logger) (*S3Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing keeps MinIO and other self-hosted
			// endpoints working without per-bucket DNS.
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		log:        log.With().Str("component", "s3").Logger(),
	}, nil
}

// List returns every object under the configured prefix.
func (c *S3Client) List(ctx context.Context) ([]RemoteObject, error) {
	var objects []RemoteObject

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", c.bucket, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, RemoteObject{
				Key:          aws.ToString(obj.Key),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	c.log.Debug().Int("objects", len(objects)).Str("prefix", c.prefix).Msg("Listed artifact bucket")
	return objects, nil
}

// Download fetches one object to destPath. A failed download removes the
// partial file.
func (c *S3Client) Download(ctx context.Context, key, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return nil
}
