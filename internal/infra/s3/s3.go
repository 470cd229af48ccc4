package infra_s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func MustEstablishConn() *s3.Client {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatal(err)
	}
	return s3.NewFromConfig(cfg)
}

// S3Storage holds uploaded user avatars and course thumbnails.
type S3Storage struct {
	client *s3.Client

	prefix     string
	bucketName string
}

func New(bucketName string, client *s3.Client, prefix string) (*S3Storage, error) {
	storage := S3Storage{
		bucketName: bucketName,
		client:     client,
		prefix:     prefix,
	}

	// The bucket must already exist; assets are written into it, not
	// provisioned alongside it.
	_, err := storage.client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			if _, ok := apiError.(*types.NotFound); ok {
				return nil, fmt.Errorf("bucket %s does not exist: %w", bucketName, err)
			}
		}
		return nil, fmt.Errorf("failed to access bucket %s: %w", bucketName, err)
	}

	return &storage, nil
}

func (s *S3Storage) buildKey(name string) string {
	clean := strings.ReplaceAll(name, "\\", "")
	clean = strings.ReplaceAll(clean, "..", "")
	return path.Join(s.prefix, clean)
}

// Save uploads the object and returns its key and public URL.
func (s *S3Storage) Save(ctx context.Context, name string, data []byte, contentType string) (key string, url string, err error) {
	key = s.buildKey(name)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}); err != nil {
		return "", "", fmt.Errorf("failed to save object to S3: %w", err)
	}
	return key, fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucketName, key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucketName,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}
