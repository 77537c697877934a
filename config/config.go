package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported backends.
const (
	BackendAppwrite = "appwrite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	ServerPort int
	Backend    string
	Session    SessionConfig
	Appwrite   AppwriteConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	MQ         MQConfig
	Insight    InsightConfig
	Log        LogConfig
}

type SessionConfig struct {
	Secret  string
	TTL     time.Duration
	IdleTTL time.Duration
	Secure  bool
}

type AppwriteConfig struct {
	Endpoint                 string
	ProjectID                string
	DatabaseID               string
	ProfilesCollectionID     string
	ActivityLogsCollectionID string
	APIKey                   string
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	UseSSL      bool
	AllowSignUp bool
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ProfileTTL time.Duration
}

type StorageConfig struct {
	Driver string
	Minio  MinioConfig
	GCS    GCSConfig
	S3     S3Config
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type MQConfig struct {
	Driver          string
	ActivityChannel string
	RabbitMQ        RabbitMQConfig
	PubSub          PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type InsightConfig struct {
	APIKey string
	Model  string
}

type LogConfig struct {
	Level string
	Dev   bool
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Backend:    strings.ToLower(getEnv("BACKEND", BackendAppwrite)),
		Session: SessionConfig{
			Secret:  getEnv("SESSION_SECRET", ""),
			TTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
			IdleTTL: getEnvDuration("SESSION_IDLE_TTL", 12*time.Hour),
			Secure:  getEnvBool("SESSION_SECURE_COOKIE", false),
		},
		Appwrite: AppwriteConfig{
			Endpoint:                 getEnv("APPWRITE_ENDPOINT", ""),
			ProjectID:                getEnv("APPWRITE_PROJECT_ID", ""),
			DatabaseID:               getEnv("APPWRITE_DATABASE_ID", ""),
			ProfilesCollectionID:     getEnv("APPWRITE_PROFILES_COLLECTION_ID", ""),
			ActivityLogsCollectionID: getEnv("APPWRITE_ACTIVITY_LOGS_COLLECTION_ID", ""),
			APIKey:                   getEnv("APPWRITE_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", ""),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", ""),
			Password:    getEnv("DB_PASSWORD", ""),
			DBName:      getEnv("DB_NAME", ""),
			UseSSL:      getEnvBool("DB_SSL", false),
			AllowSignUp: getEnvBool("ALLOW_SIGNUP", true),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			ProfileTTL: getEnvDuration("REDIS_PROFILE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "")),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "avatars"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
			S3: S3Config{
				Region:          getEnv("S3_REGION", "us-east-1"),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				Bucket:          getEnv("S3_BUCKET", ""),
			},
		},
		MQ: MQConfig{
			Driver:          strings.ToLower(getEnv("MQ_DRIVER", "")),
			ActivityChannel: getEnv("MQ_ACTIVITY_CHANNEL", "activity-logs"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		Insight: InsightConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dev:   os.Getenv("ENV") == "dev",
		},
	}
}

// Missing lists the required settings of the selected backend that are not set.
// An unknown backend reports BACKEND itself as missing.
func (c Config) Missing() []string {
	var required map[string]string
	var order []string

	switch c.Backend {
	case BackendAppwrite:
		order = AppwriteSettings
		required = map[string]string{
			"APPWRITE_ENDPOINT":                    c.Appwrite.Endpoint,
			"APPWRITE_PROJECT_ID":                  c.Appwrite.ProjectID,
			"APPWRITE_DATABASE_ID":                 c.Appwrite.DatabaseID,
			"APPWRITE_PROFILES_COLLECTION_ID":      c.Appwrite.ProfilesCollectionID,
			"APPWRITE_ACTIVITY_LOGS_COLLECTION_ID": c.Appwrite.ActivityLogsCollectionID,
			"APPWRITE_API_KEY":                     c.Appwrite.APIKey,
		}
	case BackendPostgres:
		order = PostgresSettings
		required = map[string]string{
			"DB_HOST":     c.Database.Host,
			"DB_USER":     c.Database.User,
			"DB_PASSWORD": c.Database.Password,
			"DB_NAME":     c.Database.DBName,
		}
	case BackendMemory:
		return nil
	default:
		return []string{"BACKEND"}
	}

	var missing []string
	for _, key := range order {
		if strings.TrimSpace(required[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// IsConfigured reports whether every required setting of the selected backend is present.
func (c Config) IsConfigured() bool {
	return len(c.Missing()) == 0
}

// RequiredSettings returns the setting names the selected backend needs, in display order.
func (c Config) RequiredSettings() []string {
	switch c.Backend {
	case BackendPostgres:
		return PostgresSettings
	case BackendMemory:
		return nil
	default:
		return AppwriteSettings
	}
}

// AppwriteSettings are the settings required by the appwrite backend.
var AppwriteSettings = []string{
	"APPWRITE_ENDPOINT",
	"APPWRITE_PROJECT_ID",
	"APPWRITE_DATABASE_ID",
	"APPWRITE_PROFILES_COLLECTION_ID",
	"APPWRITE_ACTIVITY_LOGS_COLLECTION_ID",
	"APPWRITE_API_KEY",
}

// PostgresSettings are the settings required by the postgres backend.
var PostgresSettings = []string{
	"DB_HOST",
	"DB_USER",
	"DB_PASSWORD",
	"DB_NAME",
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(strings.TrimSpace(valueStr)); err == nil {
			return value
		}
	}
	return defaultValue
}
