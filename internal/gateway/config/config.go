package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Env          string
	DatabaseURL  string
	RegistryPath string
	GeminiModel  string
	Document     DocumentConfig
}

type DocumentConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c DocumentConfig) CanUseS3() bool {
	return c.Enabled &&
		strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8082", "server port")
	registryPath := flag.String("registry", "registry/features.yaml", "feature registry file")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}
	if envRegistry := strings.TrimSpace(os.Getenv("FEATURE_REGISTRY_PATH")); envRegistry != "" {
		*registryPath = envRegistry
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:         *port,
		Env:          env,
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RegistryPath: *registryPath,
		GeminiModel:  strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		Document:     loadDocumentConfig(env),
	}, nil
}

func loadDocumentConfig(env string) DocumentConfig {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return localDocumentConfig()
	}
	endpoint := resolveDocumentEndpoint(env)
	return DocumentConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCUMENT_S3_BUCKET")), "hrflow-documents"),
		UseSSL:    resolveDocumentUseSSL(env),
	}
}

func resolveDocumentEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("DOCUMENT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("DOCUMENT_S3_ENDPOINT"))
}

func resolveDocumentUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("DOCUMENT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
