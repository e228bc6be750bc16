package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env           string
	ServerAddress string
	LogLevel      string
	LogFormat     string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseAPIKey          string
	FirebaseStorageBucket   string

	// StoreBackend selects the document store: firestore, mongo or memory.
	StoreBackend        string
	MongoURI            string
	MongoDB             string
	StoreBreakerEnabled bool

	RedisAddr             string
	RedisPassword         string
	PublicProfileCacheTTL time.Duration

	// AuthMode is firebase in deployed environments; jwt is for local runs without a Firebase project.
	AuthMode  string
	JWTSecret string

	RecaptchaSecret   string
	RecaptchaHostname string
	SendGridAPIKey    string
	InviteFromEmail   string
	AppBaseURL        string

	WebDir           string
	InviteCodeLength int
	InviteTTLDays    int
	MaxUploadSizeMB  int64
}

func Load() *Config {
	env := getEnv("ENV", "development")
	return &Config{
		Env:           env,
		ServerAddress: getEnv("SERVER_ADDRESS", ":"+getEnv("PORT", "8080")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", defaultLogFormat(env)),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),

		StoreBackend:        getEnv("STORE_BACKEND", "firestore"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "pairup"),
		StoreBreakerEnabled: getEnvBool("STORE_BREAKER_ENABLED", env == "production"),

		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		PublicProfileCacheTTL: getEnvDuration("PUBLIC_PROFILE_CACHE_TTL", 5*time.Minute),

		AuthMode:  getEnv("AUTH_MODE", "firebase"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		RecaptchaSecret:   getEnv("RECAPTCHA_SECRET", ""),
		RecaptchaHostname: getEnv("RECAPTCHA_HOSTNAME", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		InviteFromEmail:   getEnv("INVITE_FROM_EMAIL", ""),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:5173"),

		WebDir:           getEnv("WEB_DIR", "./dist"),
		InviteCodeLength: getEnvInt("INVITE_CODE_LENGTH", 10),
		InviteTTLDays:    getEnvInt("INVITE_TTL_DAYS", 30),
		MaxUploadSizeMB:  int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "text"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
