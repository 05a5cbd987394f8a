package config

import (
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends for uploaded files
const (
	StorageLocal = "local"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	OCRTimeout         time.Duration
	MaxRequestBodySize int64
	MaxImagePixels     int64
	LogLevel           string

	UploadDir    string
	DatabasePath string

	StorageBackend        string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string

	OCRLanguages         []string
	OCRFallbackLanguages []string
	MaxWorkers           int

	CORSAllowedOrigins []string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Host:                  strings.TrimSpace(v.GetString("host")),
		Port:                  strings.TrimSpace(v.GetString("port")),
		RequestTimeout:        v.GetDuration("request_timeout"),
		AnalysisTimeout:       v.GetDuration("analysis_timeout"),
		OCRTimeout:            v.GetDuration("ocr_timeout"),
		MaxRequestBodySize:    v.GetInt64("max_request_body_size"),
		MaxImagePixels:        v.GetInt64("max_image_pixels"),
		LogLevel:              v.GetString("log_level"),
		UploadDir:             v.GetString("upload_dir"),
		DatabasePath:          v.GetString("database_path"),
		StorageBackend:        strings.ToLower(strings.TrimSpace(v.GetString("storage_backend"))),
		AzureStorageAccount:   v.GetString("azure_storage_account"),
		AzureStorageKey:       v.GetString("azure_storage_key"),
		AzureStorageContainer: v.GetString("azure_storage_container"),
		OCRLanguages:          SplitList(v.GetString("ocr_languages")),
		OCRFallbackLanguages:  SplitList(v.GetString("ocr_fallback_languages")),
		MaxWorkers:            v.GetInt("max_workers"),
		CORSAllowedOrigins:    SplitList(v.GetString("cors_allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("analysis_timeout", 90*time.Second)
	v.SetDefault("ocr_timeout", 30*time.Second)
	v.SetDefault("max_request_body_size", 16*1024*1024) // 16MiB
	v.SetDefault("max_image_pixels", 89_478_485)
	v.SetDefault("log_level", "info")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("database_path", "documents.db")
	v.SetDefault("storage_backend", StorageLocal)
	v.SetDefault("azure_storage_container", "documents")
	v.SetDefault("ocr_languages", "uzb+eng+rus")
	v.SetDefault("ocr_fallback_languages", "eng+rus")
	v.SetDefault("max_workers", runtime.NumCPU())
	v.SetDefault("cors_allowed_origins", "*")
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(c.Port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.OCRTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, ocr=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.OCRTimeout)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be > 0 (got %d)", c.MaxWorkers)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must not be empty")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}

	switch c.StorageBackend {
	case StorageLocal:
		if strings.TrimSpace(c.UploadDir) == "" {
			return fmt.Errorf("UPLOAD_DIR must not be empty")
		}
	case StorageAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for azure storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %q", c.StorageBackend)
	}
	return nil
}

// SplitList accepts "a+b" (tesseract style), "a,b" and space separated lists
func SplitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
