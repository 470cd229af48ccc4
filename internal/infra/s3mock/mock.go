package s3mock

import (
	"context"
	"fmt"
)

// S3Storage is a no-op stand-in used when AWS credentials are absent.
type S3Storage struct{}

func New() *S3Storage {
	return &S3Storage{}
}

func (s *S3Storage) Save(ctx context.Context, name string, data []byte, contentType string) (string, string, error) {
	key := "mock/" + name
	return key, fmt.Sprintf("https://mock.local/%s", key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	return nil
}
