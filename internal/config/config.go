package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DataDir      string `mapstructure:"DATA_DIR"`
	ClinicalFile string `mapstructure:"CLINICAL_FILE"`
	SupplyFile   string `mapstructure:"SUPPLY_FILE"`
	HRFile       string `mapstructure:"HR_FILE"`
	CatalogFile  string `mapstructure:"CATALOG_FILE"`

	ClinicalRows      int   `mapstructure:"CLINICAL_ROWS"`
	ClinicalBatchSize int   `mapstructure:"CLINICAL_BATCH_SIZE"`
	PatientPool       int   `mapstructure:"PATIENT_POOL"`
	SupplyOrders      int   `mapstructure:"SUPPLY_ORDERS"`
	HREmployees       int   `mapstructure:"HR_EMPLOYEES"`
	Seed              int64 `mapstructure:"SEED"`

	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATA_DIR", "CLINICAL_FILE", "SUPPLY_FILE", "HR_FILE", "CATALOG_FILE",
	"CLINICAL_ROWS", "CLINICAL_BATCH_SIZE", "PATIENT_POOL", "SUPPLY_ORDERS", "HR_EMPLOYEES", "SEED",
	"CACHE_TTL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SIGNING_KEY",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("CLINICAL_FILE", "hospital_vida_plena_dataset_500k.csv")
	v.SetDefault("SUPPLY_FILE", "hospital_supply_chain_dataset.csv")
	v.SetDefault("HR_FILE", "people_analytics_dataset.csv")
	v.SetDefault("CLINICAL_ROWS", 500_000)
	v.SetDefault("CLINICAL_BATCH_SIZE", 100_000)
	v.SetDefault("PATIENT_POOL", 100_000)
	v.SetDefault("SUPPLY_ORDERS", 50_000)
	v.SetDefault("HR_EMPLOYEES", 50_000)
	v.SetDefault("SEED", 0)
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ClinicalPath, SupplyPath and HRPath resolve the dataset files under DataDir.
func (c *Config) ClinicalPath() string { return filepath.Join(c.DataDir, c.ClinicalFile) }
func (c *Config) SupplyPath() string   { return filepath.Join(c.DataDir, c.SupplyFile) }
func (c *Config) HRPath() string       { return filepath.Join(c.DataDir, c.HRFile) }

// Validate checks that the configuration is safe to run. Generation sizes must
// be positive and the clinical row count an exact multiple of the batch size.
// In production the regeneration endpoint must be protected by a signing key.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be \"development\", \"production\" or \"test\", got %q", c.Env)
	}
	if c.DataDir == "" {
		return errors.New("DATA_DIR must not be empty")
	}
	for _, size := range []struct {
		key string
		n   int
	}{
		{"CLINICAL_ROWS", c.ClinicalRows},
		{"CLINICAL_BATCH_SIZE", c.ClinicalBatchSize},
		{"PATIENT_POOL", c.PatientPool},
		{"SUPPLY_ORDERS", c.SupplyOrders},
		{"HR_EMPLOYEES", c.HREmployees},
	} {
		if size.n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", size.key, size.n)
		}
	}
	if c.ClinicalRows%c.ClinicalBatchSize != 0 {
		return fmt.Errorf("CLINICAL_ROWS (%d) must be a multiple of CLINICAL_BATCH_SIZE (%d)", c.ClinicalRows, c.ClinicalBatchSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.DBMinConns < 0 || c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d) >= 0", c.DBMaxConns, c.DBMinConns)
	}
	if c.IsProduction() && c.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required in production")
	}
	return nil
}

// RequireDatabase fails when no warehouse connection is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}
