package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Transaction TransactionConfig `yaml:"transaction"`
	Log         LogConfig         `yaml:"log"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Firebase    FirebaseConfig    `yaml:"firebase"`
	Renderer    ClientConfig      `yaml:"renderer"`
	ESign       ClientConfig      `yaml:"esign"`
	SendGrid    SendGridConfig    `yaml:"sendgrid"`
	Documents   DocumentsConfig   `yaml:"documents"`
	Outbox      OutboxConfig      `yaml:"outbox"`
	Booking     BookingConfig     `yaml:"booking"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Environment     string        `yaml:"environment"` // "development" or "production"
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	Migrate      bool   `yaml:"migrate"`
}

// TransactionConfig bounds every multi-statement unit of work
type TransactionConfig struct {
	MaxWait time.Duration `yaml:"max_wait"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// StorageConfig contains document storage settings
type StorageConfig struct {
	Type     string `yaml:"type"`      // "local" or "firebase"
	LocalDir string `yaml:"local_dir"` // For local storage
	BaseURL  string `yaml:"base_url"`  // Server base URL for local object URLs
	Bucket   string `yaml:"bucket"`    // Firebase bucket; empty uses the project default
}

// FirebaseConfig contains Firebase app settings
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	StorageBucket   string `yaml:"storage_bucket"`
	PushEnabled     bool   `yaml:"push_enabled"`
}

// ClientConfig contains settings for an HTTP JSON collaborator
type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig contains bearer token settings. With no TokenSecret, callers
// identify only through the X-User-ID header.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	Issuer      string        `yaml:"issuer"`
	Audience    string        `yaml:"audience"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// SendGridConfig contains confirmation email settings
type SendGridConfig struct {
	APIKey      string `yaml:"api_key"`
	FromEmail   string `yaml:"from_email"`
	FromName    string `yaml:"from_name"`
	SandboxMode bool   `yaml:"sandbox_mode"`
}

// DocumentsConfig contains renderer template keys and polling bounds
type DocumentsConfig struct {
	InvoiceTemplate   string        `yaml:"invoice_template"`
	AgreementTemplate string        `yaml:"agreement_template"`
	AddendumTemplate  string        `yaml:"addendum_template"`
	PollAttempts      int           `yaml:"poll_attempts"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

// OutboxConfig contains outbox delivery settings
type OutboxConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
	LeaseTimeout time.Duration `yaml:"lease_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SetDefaults fills every unset outbox setting.
func (c *OutboxConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = time.Hour
	}
	if c.LeaseTimeout <= 0 {
		c.LeaseTimeout = 5 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
}

// BookingConfig contains booking lifecycle settings
type BookingConfig struct {
	ExpireAfter     time.Duration `yaml:"expire_after"`
	ExpireBatchSize int           `yaml:"expire_batch_size"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireBookings string        `yaml:"expire_bookings"`
	DrainOutbox    string        `yaml:"drain_outbox"`
	JobTimeout     time.Duration `yaml:"job_timeout"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and
// validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envString("APP_ENV", &c.Server.Environment)

	// Storage
	envString("STORAGE_TYPE", &c.Storage.Type)
	envString("STORAGE_LOCAL_DIR", &c.Storage.LocalDir)
	envString("STORAGE_BUCKET", &c.Storage.Bucket)

	// Firebase
	envString("FIREBASE_PROJECT_ID", &c.Firebase.ProjectID)
	envString("FIREBASE_CREDENTIALS_FILE", &c.Firebase.CredentialsFile)

	// Collaborators
	envString("RENDERER_API_KEY", &c.Renderer.APIKey)
	envString("ESIGN_API_KEY", &c.ESign.APIKey)
	envString("SENDGRID_API_KEY", &c.SendGrid.APIKey)

	// Auth
	envString("AUTH_TOKEN_SECRET", &c.Auth.TokenSecret)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 20 * time.Second
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Transaction defaults
	if c.Transaction.MaxWait == 0 {
		c.Transaction.MaxWait = 20 * time.Second
	}
	if c.Transaction.Timeout == 0 {
		c.Transaction.Timeout = 15 * time.Second
	}

	// Storage validation
	switch c.Storage.Type {
	case "", "local":
		c.Storage.Type = "local"
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage local_dir is required for local storage")
		}
		if c.Storage.BaseURL == "" {
			c.Storage.BaseURL = fmt.Sprintf("http://localhost:%d/files", c.Server.Port)
		}
	case "firebase":
		if c.Firebase.ProjectID == "" && c.Firebase.CredentialsFile == "" {
			return fmt.Errorf("firebase project_id or credentials_file is required for firebase storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Firebase.PushEnabled && c.Firebase.ProjectID == "" && c.Firebase.CredentialsFile == "" {
		return fmt.Errorf("firebase project_id or credentials_file is required for push notifications")
	}

	// Auth
	if c.IsProduction() && c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token_secret is required in production")
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}

	// Collaborators
	if c.Renderer.BaseURL == "" {
		return fmt.Errorf("renderer base_url is required")
	}
	if c.Renderer.Timeout == 0 {
		c.Renderer.Timeout = 30 * time.Second
	}
	if c.ESign.Timeout == 0 {
		c.ESign.Timeout = 30 * time.Second
	}
	if c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required")
	}
	if c.SendGrid.APIKey == "" && !c.SendGrid.SandboxMode {
		return fmt.Errorf("sendgrid api_key is required outside sandbox mode")
	}

	// Documents defaults
	if c.Documents.PollAttempts == 0 {
		c.Documents.PollAttempts = 10
	}
	if c.Documents.PollInterval == 0 {
		c.Documents.PollInterval = 2 * time.Second
	}

	// Outbox defaults
	c.Outbox.SetDefaults()

	// Booking defaults
	if c.Booking.ExpireAfter == 0 {
		c.Booking.ExpireAfter = 24 * time.Hour
	}
	if c.Booking.ExpireBatchSize == 0 {
		c.Booking.ExpireBatchSize = 100
	}

	// Scheduler defaults
	if c.Scheduler.ExpireBookings == "" {
		c.Scheduler.ExpireBookings = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Scheduler.DrainOutbox == "" {
		c.Scheduler.DrainOutbox = "*/30 * * * * *" // Every 30 seconds
	}
	if c.Scheduler.JobTimeout == 0 {
		c.Scheduler.JobTimeout = 10 * time.Minute
	}

	return nil
}

// IsProduction reports whether internal error details must be withheld
// from API responses
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
