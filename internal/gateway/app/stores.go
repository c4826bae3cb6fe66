package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"springforge/internal/archive"
	"springforge/internal/gateway/config"
	"springforge/internal/records"
)

type gatewayStores struct {
	records   records.Store
	publisher archive.Publisher
}

func initStores(ctx context.Context, cfg *config.Config) (*gatewayStores, error) {
	publisher, err := choosePublisher(cfg)
	if err != nil {
		return nil, err
	}
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return initPostgresStores(ctx, dsn, publisher)
	}
	log.Printf("records store: in-memory")
	return &gatewayStores{records: records.NewMemoryStore(), publisher: publisher}, nil
}

func initPostgresStores(ctx context.Context, dsn string, publisher archive.Publisher) (*gatewayStores, error) {
	pg, err := records.NewPostgresStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	cached, err := records.NewCachedStore(pg, records.DefaultCacheSize)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	log.Printf("records store: postgres")
	return &gatewayStores{records: cached, publisher: publisher}, nil
}

func choosePublisher(cfg *config.Config) (archive.Publisher, error) {
	if !cfg.Artifact.CanUseS3() {
		if cfg.Artifact.Enabled {
			log.Printf("archive publisher: using local fallback (s3 config incomplete)")
		}
		return archive.LocalPublisher{}, nil
	}
	s3Cfg := archive.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
		URLExpiry: cfg.Artifact.URLExpiry,
	}
	pub, err := archive.NewS3Publisher(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive s3 publisher: %w", err)
	}
	log.Printf("archive publisher: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return pub, nil
}
