package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	DynamoDB    DynamoDBConfig
	Mongo       MongoConfig
	Firestore   FirestoreConfig
	BigQuery    BigQueryConfig
	QuizEngine  QuizEngineConfig
	Futures     FuturesConfig
	Auth        AuthConfig
	Timeouts    TimeoutConfig
	ReportCache ReportCacheConfig
	Exports     ExportsConfig
	CORS        CORSConfig
	Log         LogConfig
}

// DatabaseConfig points at the Postgres database holding chapter metadata
// and export jobs.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DynamoDBConfig locates the section record and form response tables.
type DynamoDBConfig struct {
	Endpoint           string
	Region             string
	AccessKey          string
	SecretKey          string
	ReportsTable       string
	UserIndex          string
	FormResponsesTable string
}

// MongoConfig locates the quiz catalog and session activity collections.
type MongoConfig struct {
	URI    string
	QuizDB string
}

// FirestoreConfig locates the session directory.
type FirestoreConfig struct {
	Credentials        string
	SessionsCollection string
}

// BigQueryConfig locates the analytics warehouse holding qualification rows.
// Empty credentials reuse the Firestore service account.
type BigQueryConfig struct {
	Enabled            bool
	ProjectID          string
	Credentials        string
	QualificationTable string
}

// FuturesConfig is handed to the college predictor front end.
type FuturesConfig struct {
	APIURL              string
	CollegePredictorURL string
}

// QuizEngineConfig is used to build deep links back into the quiz engine.
type QuizEngineConfig struct {
	BaseURL string
	APIKey  string
}

type AuthConfig struct {
	Enabled   bool
	VerifyURL string
	Timeout   time.Duration
}

// TimeoutConfig bounds calls to the store and to enrichment sources.
type TimeoutConfig struct {
	Store      time.Duration
	Enrichment time.Duration
}

type ReportCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportsConfig configures asynchronous session exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.DynamoDB = DynamoDBConfig{
		Endpoint:           v.GetString("DYNAMODB_URL"),
		Region:             v.GetString("DYNAMODB_REGION"),
		AccessKey:          v.GetString("DYNAMODB_ACCESS_KEY"),
		SecretKey:          v.GetString("DYNAMODB_SECRET_KEY"),
		ReportsTable:       v.GetString("DYNAMODB_REPORTS_TABLE"),
		UserIndex:          v.GetString("DYNAMODB_USER_INDEX"),
		FormResponsesTable: v.GetString("DYNAMODB_FORM_RESPONSES_TABLE_NAME"),
	}

	cfg.Mongo = MongoConfig{
		URI:    v.GetString("MONGO_URI"),
		QuizDB: v.GetString("MONGO_QUIZ_DB"),
	}

	cfg.Firestore = FirestoreConfig{
		Credentials:        v.GetString("FIRESTORE_CREDENTIALS"),
		SessionsCollection: v.GetString("FIRESTORE_SESSIONS_COLLECTION"),
	}

	cfg.BigQuery = BigQueryConfig{
		Enabled:            v.GetBool("ENABLE_BIGQUERY"),
		ProjectID:          v.GetString("BIGQUERY_PROJECT"),
		Credentials:        v.GetString("BIGQUERY_CREDENTIALS"),
		QualificationTable: v.GetString("BIGQUERY_QUALIFICATION_TABLE"),
	}
	if cfg.BigQuery.Credentials == "" {
		cfg.BigQuery.Credentials = cfg.Firestore.Credentials
	}

	cfg.Futures = FuturesConfig{
		APIURL:              v.GetString("FUTURES_API_URL"),
		CollegePredictorURL: v.GetString("COLLEGE_PREDICTOR_URL"),
	}

	cfg.QuizEngine = QuizEngineConfig{
		BaseURL: v.GetString("QUIZ_ENGINE_URL"),
		APIKey:  v.GetString("QUIZ_API_KEY"),
	}

	cfg.Auth = AuthConfig{
		Enabled:   v.GetBool("ENABLE_AUTH"),
		VerifyURL: v.GetString("AUTH_VERIFY_URL"),
		Timeout:   parseDuration(v.GetString("AUTH_TIMEOUT"), 3*time.Second),
	}

	cfg.Timeouts = TimeoutConfig{
		Store:      parseDuration(v.GetString("STORE_TIMEOUT"), 5*time.Second),
		Enrichment: parseDuration(v.GetString("ENRICHMENT_TIMEOUT"), 3*time.Second),
	}

	cfg.ReportCache = ReportCacheConfig{
		Enabled: v.GetBool("ENABLE_REPORT_CACHE"),
		TTL:     parseDuration(v.GetString("REPORT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reporting_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DYNAMODB_URL", "")
	v.SetDefault("DYNAMODB_REGION", "ap-south-1")
	v.SetDefault("DYNAMODB_ACCESS_KEY", "")
	v.SetDefault("DYNAMODB_SECRET_KEY", "")
	v.SetDefault("DYNAMODB_REPORTS_TABLE", "student_quiz_reports")
	v.SetDefault("DYNAMODB_USER_INDEX", "gsi_user_id")
	v.SetDefault("DYNAMODB_FORM_RESPONSES_TABLE_NAME", "form_question_responses")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_QUIZ_DB", "quiz")

	v.SetDefault("FIRESTORE_CREDENTIALS", "")
	v.SetDefault("FIRESTORE_SESSIONS_COLLECTION", "Sessions")

	v.SetDefault("ENABLE_BIGQUERY", true)
	v.SetDefault("BIGQUERY_PROJECT", "avantifellows")
	v.SetDefault("BIGQUERY_CREDENTIALS", "")
	v.SetDefault("BIGQUERY_QUALIFICATION_TABLE", "avantifellows.prod_af_db.student_profile_al")

	v.SetDefault("FUTURES_API_URL", "http://localhost:3001/api/predict")
	v.SetDefault("COLLEGE_PREDICTOR_URL", "http://localhost:3001")

	v.SetDefault("QUIZ_ENGINE_URL", "https://quiz.avantifellows.org")
	v.SetDefault("QUIZ_API_KEY", "")

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("AUTH_VERIFY_URL", "")
	v.SetDefault("AUTH_TIMEOUT", "3s")

	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("ENRICHMENT_TIMEOUT", "3s")

	v.SetDefault("ENABLE_REPORT_CACHE", false)
	v.SetDefault("REPORT_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
