package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores exported files in a bucket.
type S3Uploader struct {
	// Client is the S3 client used for uploads. NewS3Uploader builds one
	// from the default AWS configuration; tests may supply their own.
	Client PutObjectAPI

	Bucket string
	Logger logrus.FieldLogger
}

// NewS3Uploader returns an uploader for bucket using credentials and region
// from the environment or shared AWS config.
func NewS3Uploader(ctx context.Context, bucket string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &S3Uploader{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

// DefaultKey is the object key used when none is configured.
func DefaultKey(eventID string) string {
	return fmt.Sprintf("roomdraw/%s.csv", eventID)
}

// Upload stores body under key as CSV.
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte) error {
	log := u.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	}
	if _, err := u.Client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("uploading s3://%s/%s: %s: %w", u.Bucket, key, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("uploading s3://%s/%s: %w", u.Bucket, key, err)
	}

	log.WithFields(logrus.Fields{"bucket": u.Bucket, "key": key, "bytes": len(body)}).Debug("export uploaded")
	return nil
}
