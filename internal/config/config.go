package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	AppBaseURL  string `mapstructure:"app_base_url"  validate:"required"`
	HTTPPort    string `mapstructure:"http_port"`
	HTTPTimeout int    `mapstructure:"http_timeout"`
	JWTSecret   string `mapstructure:"jwt_secret"    validate:"required"`

	PostgresHost            string `mapstructure:"postgres_host"              validate:"required"`
	PostgresUsername        string `mapstructure:"postgres_username"          validate:"required"`
	PostgresPassword        string `mapstructure:"postgres_password"          validate:"required"`
	PostgresPort            string `mapstructure:"postgres_port"              validate:"required"`
	PostgresDatabase        string `mapstructure:"postgres_database"          validate:"required"`
	DBIntervalCB            uint32 `mapstructure:"db_interval_cb"`
	DBConsecutiveFailuresCB uint32 `mapstructure:"db_consecutive_failures_cb"`

	VoiceBaseUrl               string `mapstructure:"voice_base_url"`
	VoiceAPIKey                string `mapstructure:"voice_api_key"`
	VoicePublicKey             string `mapstructure:"voice_public_key"`
	VoicePhoneNumberID         string `mapstructure:"voice_phone_number_id"`
	VoiceTimeout               int    `mapstructure:"voice_timeout"`
	VoiceRetryMaxAttempts      uint   `mapstructure:"voice_retry_max_attempts"`
	VoiceRetryMinBackoff       int    `mapstructure:"voice_retry_min_backoff"`
	VoiceRetryMaxBackoff       int    `mapstructure:"voice_retry_max_backoff"`
	VoiceIntervalCB            uint32 `mapstructure:"voice_interval_cb"`
	VoiceConsecutiveFailuresCB uint32 `mapstructure:"voice_consecutive_failures_cb"`

	ScorerBaseUrl               string `mapstructure:"scorer_base_url"`
	ScorerAPIKey                string `mapstructure:"scorer_api_key"`
	ScorerModel                 string `mapstructure:"scorer_model"`
	ScorerTimeout               int    `mapstructure:"scorer_timeout"`
	ScorerRetryMaxAttempts      uint   `mapstructure:"scorer_retry_max_attempts"`
	ScorerRetryMinBackoff       int    `mapstructure:"scorer_retry_min_backoff"`
	ScorerRetryMaxBackoff       int    `mapstructure:"scorer_retry_max_backoff"`
	ScorerIntervalCB            uint32 `mapstructure:"scorer_interval_cb"`
	ScorerConsecutiveFailuresCB uint32 `mapstructure:"scorer_consecutive_failures_cb"`

	KafkaBootstrapServer       string `mapstructure:"kafka_bootstrap_server"`
	KafkaUsername              string `mapstructure:"kafka_username"`
	KafkaPassword              string `mapstructure:"kafka_password"`
	KafkaInterviewTopic        string `mapstructure:"kafka_interview_topic"`
	KafkaIntervalCB            uint32 `mapstructure:"kafka_interval_cb"`
	KafkaConsecutiveFailuresCB uint32 `mapstructure:"kafka_consecutive_failures_cb"`

	MinioEndpointURL            string `mapstructure:"minio_endpoint_url"`
	MinioAccessKey              string `mapstructure:"minio_access_key"`
	MinioSecretKey              string `mapstructure:"minio_secret_key"`
	MinioBucketName             string `mapstructure:"minio_bucket_name"`
	MinioPathPrefix             string `mapstructure:"minio_path_prefix"`
	MinioMaxRetryAttempts       uint   `mapstructure:"minio_max_retry_attempts"`
	MinioRetryBackoffMinSeconds int    `mapstructure:"minio_retry_backoff_min_seconds"`
	MinioRetryBackoffMaxSeconds int    `mapstructure:"minio_retry_backoff_max_seconds"`
	MinioTimeout                int    `mapstructure:"minio_timeout"`
	MinioIntervalCB             uint32 `mapstructure:"minio_interval_cb"`
	MinioConsecutiveFailuresCB  uint32 `mapstructure:"minio_consecutive_failures_cb"`

	WebhookPoolSize    int `mapstructure:"webhook_pool_size"`
	DeadLetterPoolSize int `mapstructure:"dead_letter_pool_size"`

	DeadLetterMaxRetries int `mapstructure:"deadletter_max_retries"`
	DeadLetterLimit      int `mapstructure:"deadletter_limit"`
	DeadLetterInterval   int `mapstructure:"deadletter_interval"`

	ShortlistMinScore float64 `mapstructure:"shortlist_min_score"`

	LogLevel    string `mapstructure:"log_level"`
	LogFilePath string `mapstructure:"log_file_path"`

	HealthCheckerMonitorInterval int `mapstructure:"health_checker_monitor_interval"`

	PrometheusPort    string `mapstructure:"prometheus_port"`
	PrometheusTimeout int    `mapstructure:"prometheus_timeout"`
}

var Conf Config

// Load reads the environment (plus an optional .env file) into Conf and
// validates required fields. Called once from main; unit tests run against
// the zero-value Conf and never need environment setup.
func Load() error {
	return loadEnvConfig(&Conf)
}

func loadEnvConfig(cfg *Config) error {
	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setupDefaults()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError

		ok := errors.As(err, &configFileNotFoundError)
		if !ok {
			return err
		}
	}

	err = viper.Unmarshal(cfg)
	if err != nil {
		return err
	}

	err = validator.New().Struct(cfg)
	if err != nil {
		return err
	}

	return nil
}

func setupDefaults() {
	confType := reflect.TypeOf(Conf)
	for i := range confType.NumField() {
		field := confType.Field(i)
		viper.SetDefault(field.Tag.Get("mapstructure"), "")
	}

	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("HTTP_TIMEOUT", "30")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FILE_PATH", "./access.log")
	viper.SetDefault("VOICE_BASE_URL", "https://api.vapi.ai")
	viper.SetDefault("VOICE_TIMEOUT", "30")
	viper.SetDefault("VOICE_RETRY_MAX_ATTEMPTS", "3")
	viper.SetDefault("VOICE_RETRY_MIN_BACKOFF", "1")
	viper.SetDefault("VOICE_RETRY_MAX_BACKOFF", "10")
	viper.SetDefault("VOICE_INTERVAL_CB", "30")
	viper.SetDefault("VOICE_CONSECUTIVE_FAILURES_CB", "3")
	viper.SetDefault("SCORER_MODEL", "gpt-4o-mini")
	viper.SetDefault("SCORER_TIMEOUT", "60")
	viper.SetDefault("SCORER_RETRY_MAX_ATTEMPTS", "3")
	viper.SetDefault("SCORER_RETRY_MIN_BACKOFF", "1")
	viper.SetDefault("SCORER_RETRY_MAX_BACKOFF", "10")
	viper.SetDefault("SCORER_INTERVAL_CB", "30")
	viper.SetDefault("SCORER_CONSECUTIVE_FAILURES_CB", "3")
	viper.SetDefault("DB_INTERVAL_CB", "30")
	viper.SetDefault("DB_CONSECUTIVE_FAILURES_CB", "3")
	viper.SetDefault("KAFKA_INTERVIEW_TOPIC", "interview-events")
	viper.SetDefault("KAFKA_INTERVAL_CB", "30")
	viper.SetDefault("KAFKA_CONSECUTIVE_FAILURES_CB", "5")
	viper.SetDefault("MINIO_PATH_PREFIX", "call-reports")
	viper.SetDefault("MINIO_MAX_RETRY_ATTEMPTS", "3")
	viper.SetDefault("MINIO_RETRY_BACKOFF_MIN_SECONDS", "1")
	viper.SetDefault("MINIO_RETRY_BACKOFF_MAX_SECONDS", "10")
	viper.SetDefault("MINIO_TIMEOUT", "60")
	viper.SetDefault("MINIO_INTERVAL_CB", "300")
	viper.SetDefault("MINIO_CONSECUTIVE_FAILURES_CB", "3")
	viper.SetDefault("WEBHOOK_POOL_SIZE", "10")
	viper.SetDefault("DEAD_LETTER_POOL_SIZE", "3")
	viper.SetDefault("DEADLETTER_MAX_RETRIES", "10")
	viper.SetDefault("DEADLETTER_LIMIT", "100")
	viper.SetDefault("DEADLETTER_INTERVAL", "1")
	viper.SetDefault("SHORTLIST_MIN_SCORE", "70")
	viper.SetDefault("HEALTH_CHECKER_MONITOR_INTERVAL", "60")
	viper.SetDefault("PROMETHEUS_PORT", "2112")
	viper.SetDefault("PROMETHEUS_TIMEOUT", "60")
}

// VoiceConfigured reports whether the voice provider credentials are present.
// Interview creation stays functional without them (manual fallback path).
func VoiceConfigured() bool {
	return Conf.VoiceAPIKey != "" && Conf.VoicePublicKey != ""
}

// ScorerConfigured reports whether the resume scoring collaborator is enabled.
func ScorerConfigured() bool {
	return Conf.ScorerAPIKey != ""
}

// KafkaConfigured reports whether lifecycle event publishing is enabled.
func KafkaConfigured() bool {
	return Conf.KafkaBootstrapServer != ""
}

// MinioConfigured reports whether call-report archival is enabled.
func MinioConfigured() bool {
	return Conf.MinioEndpointURL != ""
}
