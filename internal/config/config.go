package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Identity *IdentityConfig `mapstructure:"identity"`
	Ledger   *LedgerConfig   `mapstructure:"ledger"`
	QR       *QRConfig       `mapstructure:"qr"`
	Report   *ReportConfig   `mapstructure:"report"`
	AMQP     *AMQPConfig     `mapstructure:"amqp"`
	Log      *LogConfig      `mapstructure:"log"`
	Metrics  *MetricsConfig  `mapstructure:"metrics"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// IdentityConfig describes how bearer credentials issued by the external
// identity provider are verified, and where role claims are written back.
type IdentityConfig struct {
	Issuer         string `mapstructure:"issuer"`
	Audience       string `mapstructure:"audience"`
	HMACSecret     string `mapstructure:"hmac_secret"`
	PublicKeyPath  string `mapstructure:"public_key_path"`
	ClaimsEndpoint string `mapstructure:"claims_endpoint"`
	ClaimsAPIKey   string `mapstructure:"claims_api_key"`
}

type LedgerConfig struct {
	CooldownHours      float64 `mapstructure:"cooldown_hours"`
	CheckinCreditCents int64   `mapstructure:"checkin_credit_cents"`
	Timezone           string  `mapstructure:"timezone"`
}

type QRConfig struct {
	MaxBatch      int    `mapstructure:"max_batch"`
	CodeLength    int    `mapstructure:"code_length"`
	ContentPrefix string `mapstructure:"content_prefix"`
	CardTitle     string `mapstructure:"card_title"`
}

type ReportConfig struct {
	MaxPageSize     int `mapstructure:"max_page_size"`
	DefaultPageSize int `mapstructure:"default_page_size"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "kids_ledger")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("identity.issuer", "")
	v.SetDefault("identity.audience", "")
	v.SetDefault("identity.hmac_secret", "")
	v.SetDefault("identity.public_key_path", "")
	v.SetDefault("identity.claims_endpoint", "")
	v.SetDefault("identity.claims_api_key", "")
	v.SetDefault("ledger.cooldown_hours", 14)
	v.SetDefault("ledger.checkin_credit_cents", 200)
	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("qr.max_batch", 1000)
	v.SetDefault("qr.code_length", 8)
	v.SetDefault("qr.content_prefix", "")
	v.SetDefault("qr.card_title", "Kids Ledger")
	v.SetDefault("report.max_page_size", 1000)
	v.SetDefault("report.default_page_size", 50)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "ledger.events")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.compress", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("metrics.enabled", true)
}

// Load reads the YAML file at path and lets environment variables override
// any key, e.g. POSTGRES_HOST for postgres.host. A missing file is not an
// error; defaults and the environment are used instead.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			zap.L().Warn("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		})
		v.WatchConfig()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("os.Stat -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *AppConfig) validate() error {
	if c.Ledger.CooldownHours <= 0 {
		return fmt.Errorf("ledger.cooldown_hours must be positive, got %v", c.Ledger.CooldownHours)
	}
	if c.Ledger.CheckinCreditCents <= 0 {
		return fmt.Errorf("ledger.checkin_credit_cents must be positive, got %v", c.Ledger.CheckinCreditCents)
	}
	if c.QR.MaxBatch <= 0 {
		return fmt.Errorf("qr.max_batch must be positive, got %v", c.QR.MaxBatch)
	}
	if c.QR.CodeLength < domain.MinQRCodeLength || c.QR.CodeLength > domain.MaxQRCodeLength {
		return fmt.Errorf("qr.code_length must be between %d and %d, got %v",
			domain.MinQRCodeLength, domain.MaxQRCodeLength, c.QR.CodeLength)
	}
	if c.Report.MaxPageSize <= 0 || c.Report.DefaultPageSize <= 0 {
		return fmt.Errorf("report page sizes must be positive")
	}
	if c.Identity.HMACSecret == "" && c.Identity.PublicKeyPath == "" {
		return fmt.Errorf("identity.hmac_secret or identity.public_key_path is required")
	}

	return nil
}
