package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"teamvault/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3RefPrefix marks ciphertext references that point into the S3 bucket
// rather than carrying the payload inline.
const s3RefPrefix = "s3:"

// S3Store stores ciphertext as S3 objects; the item's ciphertext field then
// holds an "s3:<key>" reference. Useful when payloads are too large to keep
// inside the item document.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3Store from the storage configuration. When static
// credentials are configured (local MinIO or fixed IAM keys) they are used
// directly, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.Storage) (*S3Store, error) {
	var client *s3.Client

	if cfg.S3ID != "" && cfg.S3Key != "" {
		opts := s3.Options{
			Region:      cfg.S3Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.S3ID, cfg.S3Key, ""),
		}
		if cfg.S3Endpoint != "" {
			opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
			opts.UsePathStyle = true
		}
		client = s3.New(opts)
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, ciphertext []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return s3RefPrefix + key, nil
}

func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	key, ok := strings.CutPrefix(ref, s3RefPrefix)
	if !ok {
		return nil, errors.New("not an S3 ciphertext reference")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
