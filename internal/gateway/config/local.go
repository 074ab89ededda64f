package config

import (
	"os"
	"strings"
)

// localDocumentConfig supplies the docker-compose dev stack defaults so a
// local run needs no explicit S3 configuration.
func localDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Enabled:   true,
		Endpoint:  firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_MINIO_ENDPOINT")), "minio:9000"),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_BUCKET")), "hrflow-documents"),
		UseSSL:    false,
	}
}
