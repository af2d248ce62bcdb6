package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Printing  PrintingConfig  `mapstructure:"printing"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Flow      FlowConfig      `mapstructure:"flow"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// AppConfig identifies the deployment
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// BackendConfig holds settings for the upstream VTU REST API
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables limiting
	RateBurst int           `mapstructure:"rate_burst"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CookieConfig holds settings for the session cookie
type CookieConfig struct {
	Name     string        `mapstructure:"name"`
	Domain   string        `mapstructure:"domain"` // empty = current host
	Path     string        `mapstructure:"path"`
	Secure   bool          `mapstructure:"secure"`
	SameSite string        `mapstructure:"same_site"` // strict, lax or none
	MaxAge   time.Duration `mapstructure:"max_age"`   // used when the token carries no expiry
}

// DatabaseConfig holds the export job database settings
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite file
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig holds Redis connection settings. Without Redis the purchase
// sessions, export flags and token blacklist live in process memory.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes        int           `mapstructure:"max_header_bytes"`
	MaxBodySize           int64         `mapstructure:"max_body_size"`
	RateLimitEnabled      bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests     int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow       time.Duration `mapstructure:"rate_limit_window"`
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	CORSAllowOrigins      []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods      []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders      []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies        []string      `mapstructure:"trusted_proxies"`
}

// PrintingConfig holds voucher rendering settings
type PrintingConfig struct {
	RenderTimeout   time.Duration `mapstructure:"render_timeout"`
	RemoteChromeURL string        `mapstructure:"remote_chrome_url"` // DevTools endpoint of a shared Chrome
	NoSandbox       bool          `mapstructure:"no_sandbox"`
	DeviceScale     float64       `mapstructure:"device_scale"`
	Paper           string        `mapstructure:"paper"` // A4, A5, LETTER
	Columns         int           `mapstructure:"columns"`
	CardHeightMM    float64       `mapstructure:"card_height_mm"`
	BrandName       string        `mapstructure:"brand_name"`
	CurrencyCode    string        `mapstructure:"currency_code"`
	CurrencySymbol  string        `mapstructure:"currency_symbol"`
	CurrencyLocale  string        `mapstructure:"currency_locale"`
	ExportFlagTTL   time.Duration `mapstructure:"export_flag_ttl"` // upper bound on a stuck exporting flag
	JobRetention    time.Duration `mapstructure:"job_retention"`
	PreviewDPI      float64       `mapstructure:"preview_dpi"`
}

// StorageConfig holds settings for stored export artifacts
type StorageConfig struct {
	Type              string        `mapstructure:"type"` // filesystem or s3
	BasePath          string        `mapstructure:"base_path"`
	BaseURL           string        `mapstructure:"base_url"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
}

// FlowConfig holds purchase flow settings
type FlowConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// TelemetryConfig holds OpenTelemetry and profiling settings
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // bound parameters include voucher PINs
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	PyroscopeEndpoint string        `mapstructure:"pyroscope_endpoint"`
}

// defaults lists every key. Keys must be known to viper for AutomaticEnv to
// reach them through Unmarshal, so optional settings default to zero values.
var defaults = map[string]any{
	"app.name": "datapadi-web",
	"app.env":  "development",
	"app.port": "8080",

	"backend.base_url":   "http://localhost:4000",
	"backend.timeout":    30 * time.Second,
	"backend.rate_limit": 0.0,
	"backend.rate_burst": 10,
	"backend.user_agent": "datapadi-web",

	"cookie.name":      "session_token",
	"cookie.domain":    "",
	"cookie.path":      "/",
	"cookie.secure":    false,
	"cookie.same_site": "lax",
	"cookie.max_age":   24 * time.Hour,

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "datapadi",
	"database.sslmode":            "disable",
	"database.path":               "datapadi.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// PDF exports hold the connection while Chrome rasterizes
	"http.write_timeout":            90 * time.Second,
	"http.idle_timeout":             60 * time.Second,
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            int64(1 << 20),
	"http.rate_limit_enabled":       false,
	"http.rate_limit_requests":      100,
	"http.rate_limit_window":        time.Minute,
	"http.auth_rate_limit_enabled":  false,
	"http.auth_rate_limit_requests": 5,
	"http.auth_rate_limit_window":   time.Minute,
	"http.cors_allow_origins":       []string{},
	"http.cors_allow_methods":       []string{"GET", "POST", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":          []string{},

	"printing.render_timeout":    60 * time.Second,
	"printing.remote_chrome_url": "",
	"printing.no_sandbox":        false,
	"printing.device_scale":      2.0,
	"printing.paper":             "A4",
	"printing.columns":           4,
	"printing.card_height_mm":    48.0,
	"printing.brand_name":        "DataPadi",
	"printing.currency_code":     "NGN",
	"printing.currency_symbol":   "₦",
	"printing.currency_locale":   "en-NG",
	"printing.export_flag_ttl":   2 * time.Minute,
	"printing.job_retention":     30 * 24 * time.Hour,
	"printing.preview_dpi":       96.0,

	"storage.type":               "filesystem",
	"storage.base_path":          "./data/exports",
	"storage.base_url":           "/api/v1/print-jobs",
	"storage.endpoint":           "",
	"storage.region":             "",
	"storage.bucket":             "",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,

	"flow.session_ttl": 30 * time.Minute,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "datapadi-web",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_endpoint":      "http://localhost:4040",
}

// Load reads the configuration. Priority, highest first:
//  1. DATAPADI_* environment variables (DATAPADI_BACKEND_BASE_URL)
//  2. a .env file in the working directory
//  3. config.toml in ., ./config or /app
//  4. built-in defaults
func Load() (*Config, error) {
	// existing variables win over .env; a missing file is fine
	_ = gotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("DATAPADI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExportFlagHeadroom covers the export steps around the capture: resolving
// vouchers, assembling and storing the document
const ExportFlagHeadroom = 30 * time.Second

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url is invalid: %w", err)
	}
	if c.Backend.RateLimit < 0 {
		return errors.New("backend.rate_limit cannot be negative")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) must be between 0 and database.max_open_conns; it cannot exceed %d",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Printing.Columns != 3 && c.Printing.Columns != 4 {
		return fmt.Errorf("printing.columns must be 3 or 4, got %d", c.Printing.Columns)
	}
	if c.Printing.DeviceScale < 1 {
		return errors.New("printing.device_scale must be at least 1")
	}
	if floor := c.Printing.RenderTimeout + ExportFlagHeadroom; c.Printing.ExportFlagTTL < floor {
		return fmt.Errorf("printing.export_flag_ttl (%s) must be at least printing.render_timeout plus %s (%s)",
			c.Printing.ExportFlagTTL, ExportFlagHeadroom, floor)
	}

	switch c.Storage.Type {
	case "filesystem":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage.type must be filesystem or s3, got %q", c.Storage.Type)
	}

	if c.Cookie.SameSite == "none" && !c.Cookie.Secure {
		return errors.New("cookie.same_site=none requires cookie.secure=true")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

func (c *Config) validateProduction() error {
	if c.Database.Driver == "postgres" {
		if c.Database.Password == "" {
			return errors.New("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return errors.New("database.sslmode cannot be 'disable' in production")
		}
	}
	if !c.Cookie.Secure {
		return errors.New("cookie.secure must be true in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("http.cors_allow_origins cannot be '*' in production")
		}
	}
	if c.Telemetry.DBLogFullSQL {
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	return nil
}

// DSN returns the connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
