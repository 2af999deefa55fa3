package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store persists images to an S3 bucket with public-read access and
// returns the canonical retrieval URL.
type S3Store struct {
	Client        *s3.Client
	Bucket        string
	Region        string
	PublicBaseURL string
}

// NewS3Store creates the persisted store. A missing bucket is a hard
// configuration error; the strategy is chosen at startup, so this failure
// happens before any request is served.
func NewS3Store(client *s3.Client, bucket, region, publicBaseURL string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3store: Missing S3_BUCKET")
	}
	return &S3Store{
		Client:        client,
		Bucket:        bucket,
		Region:        region,
		PublicBaseURL: publicBaseURL,
	}, nil
}

// Save uploads the bytes under a fresh key with the MIME type as object
// metadata and public-read access.
func (s *S3Store) Save(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := BuildKey(prefix, contentType)
	log.Printf("Uploading %d bytes to s3://%s/%s", len(data), s.Bucket, key)

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
		Metadata:    map[string]string{"content-type": contentType},
	})
	if err != nil {
		return "", fmt.Errorf("s3store: failed to upload object: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	if s.PublicBaseURL != "" {
		return strings.TrimSuffix(s.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, key)
}
