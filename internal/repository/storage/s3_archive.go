package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/dafibh/washpos/washpos-backend/internal/config"
	"github.com/dafibh/washpos/washpos-backend/internal/domain"
)

// DefaultURLExpiry is how long a presigned archive link stays valid
const DefaultURLExpiry = 15 * time.Minute

// S3ClosingArchive implements domain.ClosingArchive using AWS S3.
// Each closing is one private JSON object.
type S3ClosingArchive struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3ClosingArchive creates a new S3 closing archive and makes sure the bucket exists
func NewS3ClosingArchive(ctx context.Context, s3cfg cfg.S3Config) (*S3ClosingArchive, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Endpoint override for MinIO/LocalStack
	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	archive := &S3ClosingArchive{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
		expiry:    DefaultURLExpiry,
	}

	if err := archive.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return archive, nil
}

// ensureBucket creates the bucket if it doesn't exist (private, no bucket policy)
func (a *S3ClosingArchive) ensureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ClosingKey is the object key of a session's archived closing
func ClosingKey(branchID, sessionID int32) string {
	return fmt.Sprintf("%d/closings/%d.json", branchID, sessionID)
}

// Store uploads the closing record and returns its object key
func (a *S3ClosingArchive) Store(ctx context.Context, branchID int32, record *domain.ClosingRecord) (string, error) {
	if record == nil || record.Session == nil {
		return "", fmt.Errorf("closing record has no session")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode closing: %w", err)
	}

	key := ClosingKey(branchID, record.Session.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload closing: %w", err)
	}
	return key, nil
}

// URL returns a presigned GET link to a session's archived closing
func (a *S3ClosingArchive) URL(ctx context.Context, branchID, sessionID int32) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ClosingKey(branchID, sessionID)),
	}, s3.WithPresignExpires(a.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}
