package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the slice of the S3 client the publisher needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads rendered reports to a bucket under prefix/<run-id>/.
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Publisher builds a publisher from the default AWS credential chain.
// An empty region falls back to the AWS defaults.
func NewS3Publisher(ctx context.Context, bucket, prefix, region string) (*S3Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return newS3Publisher(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func newS3Publisher(client objectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Publish uploads the file at localPath and returns its s3:// URI.
func (p *S3Publisher) Publish(ctx context.Context, runID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("s3: open %q: %w", localPath, err)
	}
	defer f.Close()

	key := p.key(runID, filepath.Base(localPath))
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put s3://%s/%s: %w", p.bucket, key, err)
	}
	return "s3://" + p.bucket + "/" + key, nil
}

func (p *S3Publisher) key(runID, name string) string {
	if p.prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(p.prefix, runID, name)
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
