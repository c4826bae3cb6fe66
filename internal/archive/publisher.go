package archive

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Location is where a published archive can be fetched.
type Location struct {
	Name string // file name, e.g. shop.zip
	Path string // local path
	URL  string // remote URL, empty for local-only publishing
}

// Publisher makes a built archive available to callers.
type Publisher interface {
	Publish(ctx context.Context, project, localPath string) (Location, error)
}

// LocalPublisher leaves the archive where it was built.
type LocalPublisher struct{}

func (LocalPublisher) Publish(_ context.Context, project, localPath string) (Location, error) {
	return Location{Name: project + Ext, Path: localPath}, nil
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// S3Publisher uploads archives to an S3-compatible bucket and hands out
// presigned download URLs. The local copy is kept.
type S3Publisher struct {
	client     *minio.Client
	bucketName string
	region     string
	expiry     time.Duration

	initOnce sync.Once
	initErr  error
}

func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Publisher{client: client, bucketName: bucket, region: region, expiry: expiry}, nil
}

func (s *S3Publisher) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Publisher) Publish(ctx context.Context, project, localPath string) (Location, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return Location{}, fmt.Errorf("ensure bucket: %w", err)
	}
	key := ObjectKey(project)
	info, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return Location{}, fmt.Errorf("upload %s: %w", key, err)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, nil)
	if err != nil {
		return Location{}, fmt.Errorf("presign %s: %w", key, err)
	}
	log.Printf("archive published: s3://%s/%s (%d bytes)", s.bucketName, key, info.Size)
	return Location{Name: project + Ext, Path: localPath, URL: u.String()}, nil
}

// ObjectKey is the bucket key of a project's archive.
func ObjectKey(project string) string {
	project = strings.Trim(strings.TrimSpace(project), "/")
	return path.Join(project, project+Ext)
}
