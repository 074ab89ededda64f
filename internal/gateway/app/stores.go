package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"hrflow/internal/gateway/config"
	"hrflow/internal/store/agreementstore"
	"hrflow/internal/store/documents"
	"hrflow/internal/store/featurestore"
)

type gatewayStores struct {
	features   *featurestore.Store
	agreements *agreementstore.Store
	documents  documents.Store
}

func initStores(cfg *config.Config, logger *zap.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		features, err := featurestore.NewPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("open feature store: %w", err)
		}
		agreements, err := agreementstore.NewPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("open agreement store: %w", err)
		}
		stores.features = features
		stores.agreements = agreements
		logger.Info("stores: postgres")
	} else {
		stores.features = featurestore.New(filepath.Join("tmp", "features.json"))
		stores.agreements = agreementstore.New(filepath.Join("tmp", "agreements.json"))
		logger.Info("stores: local files under tmp/")
	}

	if cfg.Document.CanUseS3() {
		s3Store, err := documents.NewS3Store(documents.S3Config{
			Endpoint:  cfg.Document.Endpoint,
			Region:    cfg.Document.Region,
			AccessKey: cfg.Document.AccessKey,
			SecretKey: cfg.Document.SecretKey,
			Bucket:    cfg.Document.Bucket,
			UseSSL:    cfg.Document.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init document s3 store: %w", err)
		}
		stores.documents = s3Store
		logger.Info("document store: s3",
			zap.String("bucket", cfg.Document.Bucket),
			zap.String("endpoint", cfg.Document.Endpoint))
	} else {
		stores.documents = documents.NewMemoryStore()
		if cfg.Document.Enabled {
			logger.Warn("document store: in-memory fallback (s3 config incomplete)")
		}
	}

	return stores, nil
}
