package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// CoverPrefix is the key prefix under which book covers live in the bucket.
const CoverPrefix = "books/"

type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // R2 or MinIO; empty uses AWS
	PublicBaseURL   string
}

// S3Service stores cover images in an S3-compatible bucket served from PublicBaseURL.
type S3Service struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewS3Service(ctx context.Context, o S3Options) (*S3Service, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	region := o.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return &S3Service{
		client:     client,
		bucket:     o.Bucket,
		publicBase: strings.TrimRight(o.PublicBaseURL, "/"),
	}, nil
}

// CoverKey returns the object key for a cover file. An empty name gets a random one keeping ext.
func CoverKey(fileName, ext string) string {
	if fileName == "" {
		return CoverPrefix + uuid.New().String() + ext
	}
	return CoverPrefix + fileName
}

// PublicCoverURL builds the public URL of a cover key, escaping the file name.
func PublicCoverURL(base, key string) string {
	dir, file := path.Split(key)
	return strings.TrimRight(base, "/") + "/" + dir + url.PathEscape(file)
}

func (s *S3Service) PublicURL(key string) string {
	return PublicCoverURL(s.publicBase, key)
}

// Exists reports whether key is already stored.
func (s *S3Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

// Put stores body under key.
func (s *S3Service) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}
