package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qlweb/internal/brotherql"
	"qlweb/internal/domain"
	"qlweb/internal/infra/logging"
)

const (
	defaultConfigFile = "config.json"
	exampleConfigFile = "config.example.json"
)

// Config is the application configuration. The upper-case keys follow the
// layout of config.json.
type Config struct {
	Website   WebsiteConfig   `json:"WEBSITE" yaml:"WEBSITE"`
	Label     LabelConfig     `json:"LABEL" yaml:"LABEL"`
	Server    ServerConfig    `json:"SERVER" yaml:"SERVER"`
	Printer   PrinterConfig   `json:"PRINTER" yaml:"PRINTER"`
	Logger    LoggerConfig    `json:"LOGGER" yaml:"LOGGER"`
	Cache     CacheConfig     `json:"CACHE" yaml:"CACHE"`
	Journal   PostgresConfig  `json:"JOURNAL" yaml:"JOURNAL"`
	MQTT      MQTTConfig      `json:"MQTT" yaml:"MQTT"`
	RateLimit RateLimitConfig `json:"RATE_LIMIT" yaml:"RATE_LIMIT"`
	Auth      AuthConfig      `json:"AUTH" yaml:"AUTH"`
}

// WebsiteConfig holds the texts of the designer page.
type WebsiteConfig struct {
	HTMLTitle    string `json:"HTML_TITLE" yaml:"HTML_TITLE"`
	PageTitle    string `json:"PAGE_TITLE" yaml:"PAGE_TITLE"`
	PageHeadline string `json:"PAGE_HEADLINE" yaml:"PAGE_HEADLINE"`
}

// FontSpec names one font family/style pair.
type FontSpec struct {
	Family string `json:"family" yaml:"family"`
	Style  string `json:"style" yaml:"style"`
}

// LabelConfig holds label defaults.
type LabelConfig struct {
	DefaultSize        string     `json:"DEFAULT_SIZE" yaml:"DEFAULT_SIZE"`
	DefaultOrientation string     `json:"DEFAULT_ORIENTATION" yaml:"DEFAULT_ORIENTATION"`
	DefaultFontSize    int        `json:"DEFAULT_FONT_SIZE" yaml:"DEFAULT_FONT_SIZE"`
	DefaultFonts       []FontSpec `json:"DEFAULT_FONTS" yaml:"DEFAULT_FONTS"`
	GrocyCode          string     `json:"GROCY_CODE" yaml:"GROCY_CODE"`

	// DefaultFont is the font picked at startup from DefaultFonts.
	DefaultFont FontSpec `json:"-" yaml:"-"`
}

// ServerConfig holds listener and logging settings.
type ServerConfig struct {
	Host                 string         `json:"HOST" yaml:"HOST"`
	Port                 int            `json:"PORT" yaml:"PORT"`
	LogLevel             string         `json:"LOGLEVEL" yaml:"LOGLEVEL"`
	AdditionalFontFolder OptionalString `json:"ADDITIONAL_FONT_FOLDER" yaml:"ADDITIONAL_FONT_FOLDER"`
	Prefork              bool           `json:"PREFORK" yaml:"PREFORK"`
	// DebugOutput is where dry-run prints store their image.
	DebugOutput string `json:"DEBUG_OUTPUT" yaml:"DEBUG_OUTPUT"`
	// PrintTimeoutSecs bounds a single write to the printer.
	PrintTimeoutSecs int `json:"PRINT_TIMEOUT_SECS" yaml:"PRINT_TIMEOUT_SECS"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PrintTimeout returns the printer write timeout.
func (s ServerConfig) PrintTimeout() time.Duration {
	return time.Duration(s.PrintTimeoutSecs) * time.Second
}

// PrinterConfig selects the printer.
type PrinterConfig struct {
	Model   string `json:"MODEL" yaml:"MODEL"`
	Printer string `json:"PRINTER" yaml:"PRINTER"`
	// Compress enables PackBits raster compression on models that support it.
	Compress bool `json:"COMPRESS" yaml:"COMPRESS"`
}

// LoggerConfig configures the optional rotated log file.
type LoggerConfig struct {
	File       string `json:"FILE" yaml:"FILE"`
	MaxSizeMB  int    `json:"MAX_SIZE_MB" yaml:"MAX_SIZE_MB"`
	MaxBackups int    `json:"MAX_BACKUPS" yaml:"MAX_BACKUPS"`
	MaxAgeDays int    `json:"MAX_AGE_DAYS" yaml:"MAX_AGE_DAYS"`
	Compress   bool   `json:"COMPRESS" yaml:"COMPRESS"`
}

// CacheConfig configures Redis. An empty RedisHost disables it.
type CacheConfig struct {
	RedisHost           string `json:"REDIS_HOST" yaml:"REDIS_HOST"`
	PreviewCacheEnabled bool   `json:"PREVIEW_CACHE_ENABLED" yaml:"PREVIEW_CACHE_ENABLED"`
	PreviewDB           int    `json:"PREVIEW_DB" yaml:"PREVIEW_DB"`
	PreviewTTLSecs      int    `json:"PREVIEW_TTL_SECS" yaml:"PREVIEW_TTL_SECS"`
	RateLimitDB         int    `json:"RATE_LIMIT_DB" yaml:"RATE_LIMIT_DB"`
}

// PreviewTTL returns how long rendered previews stay cached.
func (c CacheConfig) PreviewTTL() time.Duration {
	return time.Duration(c.PreviewTTLSecs) * time.Second
}

// PostgresConfig configures the print journal. An empty Host disables it.
type PostgresConfig struct {
	Host     string `json:"HOST" yaml:"HOST"`
	Port     int    `json:"PORT" yaml:"PORT"`
	Database string `json:"DATABASE" yaml:"DATABASE"`
	User     string `json:"USER" yaml:"USER"`
	Password string `json:"PASSWORD" yaml:"PASSWORD"`
	SSLMode  string `json:"SSLMODE" yaml:"SSLMODE"`
}

// MQTTConfig configures print event publishing. An empty Host disables it.
type MQTTConfig struct {
	Host     string `json:"HOST" yaml:"HOST"`
	Port     int    `json:"PORT" yaml:"PORT"`
	Topic    string `json:"TOPIC" yaml:"TOPIC"`
	ClientID string `json:"CLIENT_ID" yaml:"CLIENT_ID"`
	Username string `json:"USERNAME" yaml:"USERNAME"`
	Password string `json:"PASSWORD" yaml:"PASSWORD"`
}

// RateLimitConfig limits print requests per client. Zero disables it.
type RateLimitConfig struct {
	PrintLimit   int `json:"PRINT_LIMIT" yaml:"PRINT_LIMIT"`
	IntervalSecs int `json:"INTERVAL_SECS" yaml:"INTERVAL_SECS"`
}

// Interval returns the rate limit window.
func (r RateLimitConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSecs) * time.Second
}

// AuthConfig lists API tokens accepted in X-API-Key. Empty disables auth.
type AuthConfig struct {
	APITokens []string `json:"API_TOKENS" yaml:"API_TOKENS"`
}

// OptionalString accepts a string or false/null, which both mean unset.
type OptionalString string

func (s *OptionalString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("false")) || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("expected string or false: %w", err)
	}
	*s = OptionalString(v)
	return nil
}

func (s *OptionalString) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!bool" || value.Tag == "!!null" {
		*s = ""
		return nil
	}
	var v string
	if err := value.Decode(&v); err != nil {
		return err
	}
	*s = OptionalString(v)
	return nil
}

// Default returns a configuration with every default filled in.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Website.HTMLTitle == "" {
		c.Website.HTMLTitle = "Label Designer"
	}
	if c.Website.PageTitle == "" {
		c.Website.PageTitle = "Brother QL Label Designer"
	}
	if c.Label.DefaultSize == "" {
		c.Label.DefaultSize = "62"
	}
	if c.Label.DefaultOrientation == "" {
		c.Label.DefaultOrientation = string(domain.OrientationStandard)
	}
	if c.Label.DefaultFontSize <= 0 {
		c.Label.DefaultFontSize = 70
	}
	if c.Label.GrocyCode == "" {
		c.Label.GrocyCode = string(domain.CodeDataMatrix)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8013
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "WARNING"
	}
	if c.Server.DebugOutput == "" {
		c.Server.DebugOutput = "sample-out.png"
	}
	if c.Server.PrintTimeoutSecs <= 0 {
		c.Server.PrintTimeoutSecs = 10
	}
	if c.Printer.Model == "" {
		c.Printer.Model = "QL-500"
	}
	if c.Printer.Printer == "" {
		c.Printer.Printer = "file:///dev/usb/lp1"
	}
	if c.Logger.MaxSizeMB <= 0 {
		c.Logger.MaxSizeMB = 10
	}
	if c.Cache.PreviewTTLSecs <= 0 {
		c.Cache.PreviewTTLSecs = 600
	}
	if c.RateLimit.IntervalSecs <= 0 {
		c.RateLimit.IntervalSecs = 60
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "qlweb/prints"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "qlweb"
	}
}

// Path resolves the configuration file: CONFIG_PATH, else config.json when
// it exists, else config.example.json.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return exampleConfigFile
}

// Load reads the configuration from Path. It panics when no file can be
// loaded.
func Load() Config {
	return LoadFrom(Path())
}

// LoadFrom reads and decodes the file at path. JSON is the native format;
// .yaml and .yml files are decoded as YAML. It panics on read or decode
// errors.
func LoadFrom(path string) Config {
	cfg, err := Read(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Read is the non-panicking variant of LoadFrom.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Overrides are command line values that take precedence over the file.
type Overrides struct {
	Port               int
	LogLevel           string
	FontFolder         string
	DefaultLabelSize   string
	DefaultOrientation string
	Model              string
	Printer            string
}

// ApplyOverrides copies every non-empty override into the configuration.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.LogLevel != "" {
		c.Server.LogLevel = o.LogLevel
	}
	if o.FontFolder != "" {
		c.Server.AdditionalFontFolder = OptionalString(o.FontFolder)
	}
	if o.DefaultLabelSize != "" {
		c.Label.DefaultSize = o.DefaultLabelSize
	}
	if o.DefaultOrientation != "" {
		c.Label.DefaultOrientation = o.DefaultOrientation
	}
	if o.Model != "" {
		c.Printer.Model = o.Model
	}
	if o.Printer != "" {
		c.Printer.Printer = o.Printer
	}
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if _, ok := brotherql.Label(c.Label.DefaultSize); !ok {
		errs = append(errs, fmt.Errorf("invalid default label size %q, choose one of: %s",
			c.Label.DefaultSize, strings.Join(brotherql.LabelIdentifiers(), " ")))
	}
	if !domain.Orientation(c.Label.DefaultOrientation).Valid() {
		errs = append(errs, fmt.Errorf("invalid default orientation %q", c.Label.DefaultOrientation))
	}
	if !domain.CodeType(c.Label.GrocyCode).Valid() {
		errs = append(errs, fmt.Errorf("invalid grocy code type %q", c.Label.GrocyCode))
	}
	if _, ok := brotherql.LookupModel(c.Printer.Model); !ok {
		errs = append(errs, fmt.Errorf("unknown printer model %q", c.Printer.Model))
	}
	if _, ok := logging.NormalizeLevel(c.Server.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Server.LogLevel))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.RateLimit.PrintLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid print rate limit %d", c.RateLimit.PrintLimit))
	}
	return errors.Join(errs...)
}
