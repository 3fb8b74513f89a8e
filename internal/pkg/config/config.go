package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	JWT         JWTConfig
	Privacy     PrivacyConfig
	RateLimit   RateLimitConfig
	Quota       QuotaConfig
	ResultStore ResultStoreConfig
	Broker      BrokerConfig
	Translate   TranslateConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true" validate:"required"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Europe/Berlin"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080" validate:"min=1"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Location,Retry-After,X-Request-ID,X-Detailed-Obfuscated-Result-Was-Empty"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Europe/Berlin"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"3600"` // 1*60*60
}

type JWTConfig struct {
	Secret             string        `envconfig:"JWT_SECRET" required:"true" validate:"required"`
	AccessTokenTTL     time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	UserRole           string        `envconfig:"JWT_ROLE_USER" default:"FEASIBILITY_USER"`
	PowerUserRole      string        `envconfig:"JWT_ROLE_POWER_USER" default:"FEASIBILITY_POWER"`
	DetailedResultRole string        `envconfig:"JWT_ROLE_DETAILED_RESULT" default:"FEASIBILITY_ADMIN"`
}

type PrivacyConfig struct {
	// Totals below this value are withheld.
	ResultSizeThreshold int `envconfig:"PRIVACY_THRESHOLD_RESULT_SIZE" default:"20" validate:"gte=0"`
	// Minimum number of sites that each have to report more than SiteResultThreshold.
	SitesThreshold      int  `envconfig:"PRIVACY_THRESHOLD_SITES" default:"3" validate:"gte=0"`
	SiteResultThreshold int  `envconfig:"PRIVACY_THRESHOLD_SITES_RESULT" default:"20" validate:"gte=0"`
	ObfuscateCounts     bool `envconfig:"PRIVACY_OBFUSCATE_COUNTS" default:"true"`
}

type RateLimitConfig struct {
	SummaryCapacity            int           `envconfig:"RATE_LIMIT_SUMMARY_CAPACITY" default:"1" validate:"gte=1"`
	SummaryRefill              time.Duration `envconfig:"RATE_LIMIT_SUMMARY_REFILL" default:"10s" validate:"gt=0"`
	DetailedObfuscatedCapacity int           `envconfig:"RATE_LIMIT_DETAILED_OBFUSCATED_CAPACITY" default:"1" validate:"gte=1"`
	DetailedObfuscatedRefill   time.Duration `envconfig:"RATE_LIMIT_DETAILED_OBFUSCATED_REFILL" default:"10s" validate:"gt=0"`
	ViewCountCapacity          int           `envconfig:"RATE_LIMIT_VIEW_COUNT_CAPACITY" default:"3" validate:"gte=1"`
	ViewCountRefill            time.Duration `envconfig:"RATE_LIMIT_VIEW_COUNT_REFILL" default:"168h" validate:"gt=0"`
}

type QuotaConfig struct {
	SoftAmount   int           `envconfig:"QUOTA_SOFT_CREATE_AMOUNT" default:"3" validate:"gte=1"`
	SoftInterval time.Duration `envconfig:"QUOTA_SOFT_CREATE_INTERVAL" default:"1m" validate:"gt=0"`
	HardAmount   int           `envconfig:"QUOTA_HARD_CREATE_AMOUNT" default:"50" validate:"gte=1"`
	HardInterval time.Duration `envconfig:"QUOTA_HARD_CREATE_INTERVAL" default:"168h" validate:"gt=0"`
}

type ResultStoreConfig struct {
	TTL           time.Duration `envconfig:"RESULT_STORE_TTL" default:"5m" validate:"gt=0"`
	EvictInterval time.Duration `envconfig:"RESULT_STORE_EVICT_INTERVAL" default:"30s" validate:"gt=0"`
}

type BrokerConfig struct {
	// Any of MOCK, DIRECT, AKTIN, DSF.
	Enabled   []string `envconfig:"BROKER_ENABLED" default:"MOCK" validate:"min=1,dive,oneof=MOCK DIRECT AKTIN DSF"`
	SitesFile string   `envconfig:"BROKER_SITES_FILE"`
	Mock      MockBrokerConfig
	Direct    DirectBrokerConfig
	Aktin     AktinBrokerConfig
	DSF       DSFBrokerConfig
}

type MockBrokerConfig struct {
	Sites []string `envconfig:"BROKER_MOCK_SITES" default:"1,2,3,4"`
}

type DirectBrokerConfig struct {
	// cql talks to a FHIR server, flare to a precomputed-query endpoint.
	Mode     string        `envconfig:"BROKER_DIRECT_MODE" default:"cql" validate:"oneof=cql flare"`
	BaseURL  string        `envconfig:"BROKER_DIRECT_BASE_URL"`
	SiteName string        `envconfig:"BROKER_DIRECT_SITE_NAME" default:"Local"`
	Timeout  time.Duration `envconfig:"BROKER_DIRECT_TIMEOUT" default:"5m"`
	Username string        `envconfig:"BROKER_DIRECT_USERNAME"`
	Password string        `envconfig:"BROKER_DIRECT_PASSWORD"`

	OAuthTokenURL     string `envconfig:"BROKER_DIRECT_OAUTH_TOKEN_URL"`
	OAuthClientID     string `envconfig:"BROKER_DIRECT_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `envconfig:"BROKER_DIRECT_OAUTH_CLIENT_SECRET"`
}

func (c DirectBrokerConfig) OAuth() OAuthConfig {
	return OAuthConfig{TokenURL: c.OAuthTokenURL, ClientID: c.OAuthClientID, ClientSecret: c.OAuthClientSecret}
}

type AktinBrokerConfig struct {
	BaseURL      string        `envconfig:"BROKER_AKTIN_BASE_URL"`
	APIKey       string        `envconfig:"BROKER_AKTIN_API_KEY"`
	PollInterval time.Duration `envconfig:"BROKER_AKTIN_POLL_INTERVAL" default:"5s"`
	Timeout      time.Duration `envconfig:"BROKER_AKTIN_TIMEOUT" default:"30s"`
	QueryTimeout time.Duration `envconfig:"BROKER_AKTIN_QUERY_TIMEOUT" default:"10m"`
}

type DSFBrokerConfig struct {
	BaseURL      string        `envconfig:"BROKER_DSF_BASE_URL"`
	Organization string        `envconfig:"BROKER_DSF_ORGANIZATION" default:"feasibility.example.org"`
	PollInterval time.Duration `envconfig:"BROKER_DSF_POLL_INTERVAL" default:"5s"`
	Timeout      time.Duration `envconfig:"BROKER_DSF_TIMEOUT" default:"30s"`
	QueryTimeout time.Duration `envconfig:"BROKER_DSF_QUERY_TIMEOUT" default:"10m"`

	OAuthTokenURL     string `envconfig:"BROKER_DSF_OAUTH_TOKEN_URL"`
	OAuthClientID     string `envconfig:"BROKER_DSF_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `envconfig:"BROKER_DSF_OAUTH_CLIENT_SECRET"`
}

func (c DSFBrokerConfig) OAuth() OAuthConfig {
	return OAuthConfig{TokenURL: c.OAuthTokenURL, ClientID: c.OAuthClientID, ClientSecret: c.OAuthClientSecret}
}

type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

func (c OAuthConfig) Enabled() bool {
	return c.TokenURL != "" && c.ClientID != ""
}

type TranslateConfig struct {
	CQLURL        string        `envconfig:"TRANSLATE_CQL_URL"`
	FHIRSearchURL string        `envconfig:"TRANSLATE_FHIR_SEARCH_URL"`
	Timeout       time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"10s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Europe/Berlin",
		},
		CORS: CORSConfig{
			AllowOrigins:  []string{"http://localhost:3000"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Location", "Retry-After"},
			MaxAge:        time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Europe/Berlin",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 3600,
		},
		JWT: JWTConfig{
			Secret:             "test-secret",
			AccessTokenTTL:     15 * time.Minute,
			UserRole:           "FEASIBILITY_USER",
			PowerUserRole:      "FEASIBILITY_POWER",
			DetailedResultRole: "FEASIBILITY_ADMIN",
		},
		Privacy: PrivacyConfig{
			ResultSizeThreshold: 20,
			SitesThreshold:      3,
			SiteResultThreshold: 20,
			ObfuscateCounts:     false,
		},
		RateLimit: RateLimitConfig{
			SummaryCapacity:            1,
			SummaryRefill:              time.Second,
			DetailedObfuscatedCapacity: 1,
			DetailedObfuscatedRefill:   time.Second,
			ViewCountCapacity:          3,
			ViewCountRefill:            time.Hour,
		},
		Quota: QuotaConfig{
			SoftAmount:   3,
			SoftInterval: time.Minute,
			HardAmount:   5,
			HardInterval: 10 * time.Minute,
		},
		ResultStore: ResultStoreConfig{
			TTL:           5 * time.Minute,
			EvictInterval: 30 * time.Second,
		},
		Broker: BrokerConfig{
			Enabled: []string{"MOCK"},
			Mock:    MockBrokerConfig{Sites: []string{"1", "2", "3", "4"}},
		},
	}
}
