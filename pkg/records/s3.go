package records

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used to fetch datasets.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from the ambient AWS configuration
// (environment, shared config, instance role).
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("records: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// FromS3 fetches a CSV object from S3 and decodes it into a collection.
func FromS3(ctx context.Context, client S3API, bucket, key string, opts CSVOptions) (*Collection, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("records: fetch s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return FromCSV(out.Body, opts)
}
