package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the process-wide configuration for the FHIR graph server.
// Fields map onto the environment variables an operator sets.
type Config struct {
	Env      string `mapstructure:"ENV"`
	HTTPPort string `mapstructure:"HTTP_PORT"`

	// Graph backend connection (spec §6.3).
	GraphHost                 string `mapstructure:"GRAPH_HOST"`
	GraphPort                 int    `mapstructure:"GRAPH_PORT"`
	GraphEnableSSL             bool   `mapstructure:"GRAPH_ENABLE_SSL"`
	GraphUsername             string `mapstructure:"GRAPH_USERNAME"`
	GraphPassword             string `mapstructure:"GRAPH_PASSWORD"`
	GraphPoolSize             int    `mapstructure:"GRAPH_POOL_SIZE"`
	GraphMaxInProcessPerConn  int    `mapstructure:"GRAPH_MAX_IN_PROCESS_PER_CONNECTION"`

	SchemaPath  string `mapstructure:"SCHEMA_PATH"`
	FHIRVersion string `mapstructure:"FHIR_VERSION"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// AuditDatabaseURL, when set, enables the Postgres-backed audit sink
	// (internal/platform/audit). Empty means audit is a no-op.
	AuditDatabaseURL string `mapstructure:"AUDIT_DATABASE_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_PORT", "8000")
	v.SetDefault("GRAPH_HOST", "localhost")
	v.SetDefault("GRAPH_PORT", 8182)
	v.SetDefault("GRAPH_ENABLE_SSL", false)
	v.SetDefault("GRAPH_POOL_SIZE", 16)
	v.SetDefault("GRAPH_MAX_IN_PROCESS_PER_CONNECTION", 64)
	v.SetDefault("SCHEMA_PATH", defaultSchemaPath())
	v.SetDefault("FHIR_VERSION", "6.0.0-ballot3")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range []string{
		"ENV", "HTTP_PORT", "GRAPH_HOST", "GRAPH_PORT", "GRAPH_ENABLE_SSL",
		"GRAPH_USERNAME", "GRAPH_PASSWORD", "GRAPH_POOL_SIZE",
		"GRAPH_MAX_IN_PROCESS_PER_CONNECTION", "SCHEMA_PATH", "FHIR_VERSION",
		"CORS_ORIGINS", "AUDIT_DATABASE_URL",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: fhirgraph-server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: The in-memory graph backend is used unless GRAPH_HOST points")
		log.Println("WARNING: at a real Neo4j instance. Do NOT use this configuration in production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

// defaultSchemaPath derives fhir.schema.json's default location from the
// running binary's install directory, per spec §6.3.
func defaultSchemaPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "fhir.schema.json"
	}
	return filepath.Join(filepath.Dir(exe), "fhir.schema.json")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.SchemaPath == "" {
		return fmt.Errorf("SCHEMA_PATH must be set")
	}
	if c.GraphPoolSize <= 0 {
		return fmt.Errorf("GRAPH_POOL_SIZE must be positive, got %d", c.GraphPoolSize)
	}
	if c.GraphMaxInProcessPerConn <= 0 {
		return fmt.Errorf("GRAPH_MAX_IN_PROCESS_PER_CONNECTION must be positive, got %d", c.GraphMaxInProcessPerConn)
	}
	return nil
}

// BoltURI returns the bolt(+s) connection URI for the configured graph host.
func (c *Config) BoltURI() string {
	scheme := "bolt"
	if c.GraphEnableSSL {
		scheme = "bolt+s"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.GraphHost, c.GraphPort)
}
