package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Couriers CouriersConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings for the admin API
type JWTConfig struct {
	Secret          string
	TokenExpiration time.Duration
	Issuer          string
}

// AdminConfig holds the bootstrap credentials for the admin panel login
type AdminConfig struct {
	Username string
	Password string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// CouriersConfig holds settings for every supported delivery provider
type CouriersConfig struct {
	RequestTimeout time.Duration
	Pathao         PathaoConfig
	RedX           RedXConfig
	Steadfast      SteadfastConfig
}

// PathaoConfig holds Pathao merchant API settings
type PathaoConfig struct {
	Enabled      bool
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	StoreID      int
}

// RedXConfig holds RedX merchant API settings. The RedX sandbox is
// unreliable, so ForceProductionURL pins requests to the production host
// unless an operator turns it off.
type RedXConfig struct {
	Enabled            bool
	BaseURL            string
	ProductionURL      string
	ForceProductionURL bool
	APIToken           string
	PickupStoreID      int
}

// SteadfastConfig holds Steadfast merchant API settings
type SteadfastConfig struct {
	Enabled   bool
	BaseURL   string
	APIKey    string
	SecretKey string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with VELORA_ prefix (e.g., VELORA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("VELORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// ForceProductionURL defaults to true, so it needs an explicit default
	// registered for the false case to survive the GetBool round trip
	v.SetDefault("couriers.redx.force_production_url", true)

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			TokenExpiration: v.GetDuration("jwt.token_expiration"),
			Issuer:          v.GetString("jwt.issuer"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Couriers: CouriersConfig{
			RequestTimeout: v.GetDuration("couriers.request_timeout"),
			Pathao: PathaoConfig{
				Enabled:      v.GetBool("couriers.pathao.enabled"),
				BaseURL:      v.GetString("couriers.pathao.base_url"),
				ClientID:     v.GetString("couriers.pathao.client_id"),
				ClientSecret: v.GetString("couriers.pathao.client_secret"),
				Username:     v.GetString("couriers.pathao.username"),
				Password:     v.GetString("couriers.pathao.password"),
				StoreID:      v.GetInt("couriers.pathao.store_id"),
			},
			RedX: RedXConfig{
				Enabled:            v.GetBool("couriers.redx.enabled"),
				BaseURL:            v.GetString("couriers.redx.base_url"),
				ProductionURL:      v.GetString("couriers.redx.production_url"),
				ForceProductionURL: v.GetBool("couriers.redx.force_production_url"),
				APIToken:           v.GetString("couriers.redx.api_token"),
				PickupStoreID:      v.GetInt("couriers.redx.pickup_store_id"),
			},
			Steadfast: SteadfastConfig{
				Enabled:   v.GetBool("couriers.steadfast.enabled"),
				BaseURL:   v.GetString("couriers.steadfast.base_url"),
				APIKey:    v.GetString("couriers.steadfast.api_key"),
				SecretKey: v.GetString("couriers.steadfast.secret_key"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "velora-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "velora"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.TokenExpiration == 0 {
		cfg.JWT.TokenExpiration = 12 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "velora-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Couriers.RequestTimeout == 0 {
		cfg.Couriers.RequestTimeout = 30 * time.Second
	}
	if cfg.Couriers.Pathao.BaseURL == "" {
		cfg.Couriers.Pathao.BaseURL = "https://api-hermes.pathao.com"
	}
	if cfg.Couriers.RedX.BaseURL == "" {
		cfg.Couriers.RedX.BaseURL = "https://sandbox.redx.com.bd/v1.0.0-beta"
	}
	if cfg.Couriers.RedX.ProductionURL == "" {
		cfg.Couriers.RedX.ProductionURL = "https://openapi.redx.com.bd/v1.0.0-beta"
	}
	if cfg.Couriers.Steadfast.BaseURL == "" {
		cfg.Couriers.Steadfast.BaseURL = "https://portal.packzy.com/api/v1"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// Enabled couriers must carry complete credentials. Catching this at
	// startup keeps credential failures out of the dispatch path.
	if c.Couriers.Pathao.Enabled {
		p := c.Couriers.Pathao
		if p.ClientID == "" || p.ClientSecret == "" {
			return fmt.Errorf("couriers.pathao requires client_id and client_secret when enabled")
		}
		if p.StoreID == 0 {
			return fmt.Errorf("couriers.pathao requires store_id when enabled")
		}
		if _, err := url.ParseRequestURI(p.BaseURL); err != nil {
			return fmt.Errorf("couriers.pathao.base_url is not a valid URL: %w", err)
		}
	}
	if c.Couriers.RedX.Enabled {
		r := c.Couriers.RedX
		if r.APIToken == "" {
			return fmt.Errorf("couriers.redx requires api_token when enabled")
		}
		if r.PickupStoreID == 0 {
			return fmt.Errorf("couriers.redx requires pickup_store_id when enabled")
		}
		if _, err := url.ParseRequestURI(r.BaseURL); err != nil {
			return fmt.Errorf("couriers.redx.base_url is not a valid URL: %w", err)
		}
		if _, err := url.ParseRequestURI(r.ProductionURL); err != nil {
			return fmt.Errorf("couriers.redx.production_url is not a valid URL: %w", err)
		}
	}
	if c.Couriers.Steadfast.Enabled {
		s := c.Couriers.Steadfast
		if s.APIKey == "" || s.SecretKey == "" {
			return fmt.Errorf("couriers.steadfast requires api_key and secret_key when enabled")
		}
		if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
			return fmt.Errorf("couriers.steadfast.base_url is not a valid URL: %w", err)
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Admin.Username != "" && c.Admin.Password == "" {
			return fmt.Errorf("admin.password is required when admin.username is set in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// EffectiveRedXBaseURL resolves the RedX host, honoring the production pin
func (c *CouriersConfig) EffectiveRedXBaseURL() string {
	if c.RedX.ForceProductionURL {
		return c.RedX.ProductionURL
	}
	return c.RedX.BaseURL
}

// Overrides reports active config overrides worth surfacing at startup
func (c *Config) Overrides() []string {
	var out []string
	if c.Couriers.RedX.Enabled && c.Couriers.RedX.ForceProductionURL {
		out = append(out, fmt.Sprintf("couriers.redx.force_production_url: using %s instead of configured base URL", c.Couriers.RedX.ProductionURL))
	}
	return out
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
