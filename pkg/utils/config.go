package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	// MinJWTSecretLength is enforced at startup.
	MinJWTSecretLength = 32
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Name      string
	Env       string
	Port      string
	APIPrefix string
	Debug     bool
	LogPath   string
}

func (c AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	Secret string
	Expire time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type RateLimitConfig struct {
	Requests     int
	AuthRequests int
	Window       time.Duration
}

type UploadConfig struct {
	Driver      string
	Dir         string
	MaxFileSize int64
	MaxFiles    int
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type CORSConfig struct {
	Origins []string
}

// LoadConfig reads defaults from the given env file (missing file is fine)
// and lets process environment variables override every key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "user-backend")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", "3000")
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_EXPIRE", "24h")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("AUTH_RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("UPLOAD_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_MAX_FILES", 5)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:      v.GetString("APP_NAME"),
			Env:       strings.ToLower(v.GetString("APP_ENV")),
			Port:      v.GetString("PORT"),
			APIPrefix: v.GetString("API_PREFIX"),
			Debug:     v.GetBool("DEBUG"),
			LogPath:   v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expire: v.GetDuration("JWT_EXPIRE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests:     v.GetInt("RATE_LIMIT_REQUESTS"),
			AuthRequests: v.GetInt("AUTH_RATE_LIMIT_REQUESTS"),
			Window:       v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Upload: UploadConfig{
			Driver:      strings.ToLower(v.GetString("UPLOAD_DRIVER")),
			Dir:         v.GetString("UPLOAD_DIR"),
			MaxFileSize: v.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			MaxFiles:    v.GetInt("UPLOAD_MAX_FILES"),
			S3: S3Config{
				Endpoint:  v.GetString("S3_ENDPOINT"),
				Region:    v.GetString("S3_REGION"),
				Bucket:    v.GetString("S3_BUCKET"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
			},
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGIN")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate fails fast on settings the server cannot run without.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.JWT.Expire <= 0 {
		return fmt.Errorf("JWT_EXPIRE must be a positive duration")
	}
	if !strings.HasPrefix(c.App.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with /")
	}
	switch c.App.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of development, production, test")
	}
	switch c.Upload.Driver {
	case "local":
	case "s3":
		if c.Upload.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOAD_DRIVER=s3")
		}
	default:
		return fmt.Errorf("UPLOAD_DRIVER must be local or s3")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
