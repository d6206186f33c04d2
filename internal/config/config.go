package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	Postgres  PostgresConfig  `env:",prefix=POSTGRES_"`
	Redis     RedisConfig     `env:",prefix=REDIS_"`
	Scheduler SchedulerConfig `env:",prefix=SCHEDULER_"`
	Providers ProvidersConfig `env:",prefix=PROVIDER_"`
	OAuth     OAuthConfig     `env:",prefix=OAUTH_"`
	Security  SecurityConfig  `env:",prefix="`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Env       string          `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host       string `env:"HOST,default=localhost"`
	Port       string `env:"PORT,default=5432"`
	User       string `env:"USER,default=assistant"`
	Password   string `env:"PASSWORD,default=assistant_password"`
	DBName     string `env:"DB,default=assistant_db"`
	SSLMode    string `env:"SSLMODE,default=disable"`
	Migrations string `env:"MIGRATIONS,default=file://migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// SchedulerConfig drives the reminder polling loop
type SchedulerConfig struct {
	PollInterval    Duration `env:"POLL_INTERVAL,default=60s"`
	LookAhead       Duration `env:"LOOK_AHEAD,default=24h"`
	DueGrace        Duration `env:"DUE_GRACE,default=5m"`
	LedgerRetention Duration `env:"LEDGER_RETENTION,default=7d"`
	DefaultTimezone string   `env:"DEFAULT_TIMEZONE,default=UTC"`
}

// ProvidersConfig holds base URLs for the external collaborators
type ProvidersConfig struct {
	CalendarBaseURL string   `env:"CALENDAR_BASE_URL,default=http://localhost:9090"`
	ContentBaseURL  string   `env:"CONTENT_BASE_URL,default=http://localhost:9091"`
	EmailBaseURL    string   `env:"EMAIL_BASE_URL,default=http://localhost:9092"`
	SMSBaseURL      string   `env:"SMS_BASE_URL,default=http://localhost:9093"`
	VoiceBaseURL    string   `env:"VOICE_BASE_URL,default=http://localhost:9094"`
	RequestTimeout  Duration `env:"REQUEST_TIMEOUT,default=15s"`
}

// OAuthConfig configures refresh-token exchange against the provider's
// token endpoint. The initial consent flow lives outside this service.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID,required"`
	ClientSecret string `env:"CLIENT_SECRET,required"`
	TokenURL     string `env:"TOKEN_URL,default=https://oauth2.googleapis.com/token"`
}

type SecurityConfig struct {
	APIKey            string   `env:"API_KEY,required"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=30"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,X-API-Key"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Security.APIKey) < 16 {
		return nil, fmt.Errorf("API_KEY must be at least 16 characters long")
	}

	if config.Scheduler.PollInterval.Duration <= 0 {
		return nil, fmt.Errorf("SCHEDULER_POLL_INTERVAL must be positive")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
