package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete server configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Toll    TollConfig    `mapstructure:"toll"`
	Routing RoutingConfig `mapstructure:"routing"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"cors_origins"`
}

// TollConfig holds the toll computation settings: where the station catalog
// and price matrices live, and the geometry parameters of the matcher.
type TollConfig struct {
	// StationsFile is the JSON station catalog, ordered along each corridor
	StationsFile string `mapstructure:"stations_file"`

	// Matrices maps corridor name to CSV locator (http(s) URL or file path)
	Matrices map[string]string `mapstructure:"matrices"`

	// DensifyStepMeters must stay strictly below ToleranceMeters or
	// stations can slip between route points unnoticed
	DensifyStepMeters float64 `mapstructure:"densify_step_meters"`
	ToleranceMeters   float64 `mapstructure:"tolerance_meters"`

	// StrictMatrixParsing fails a whole matrix load on any malformed cell
	// instead of degrading the cell to "no price defined"
	StrictMatrixParsing bool `mapstructure:"strict_matrix_parsing"`

	// QuoteCacheTTL bounds how long computed trip quotes are reused
	QuoteCacheTTL time.Duration `mapstructure:"quote_cache_ttl"`
}

// RoutingConfig holds the external routing provider settings
type RoutingConfig struct {
	OSRMBaseURL string `mapstructure:"osrm_base_url"`
}

// DefaultConfig returns the default configuration: the four Serbian corridor
// matrices and local data files
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CorsOrigins: []string{"*"},
		},
		Toll: TollConfig{
			StationsFile: "data/json/stations.json",
			Matrices: map[string]string{
				"A1S":       "data/csv/A1S.csv",
				"A2":        "data/csv/A2.csv",
				"A3_A8":     "data/csv/A3_A8.csv",
				"A1J_A5_A4": "data/csv/A1J_A5_A4.csv",
			},
			DensifyStepMeters: 10,
			ToleranceMeters:   50,
			QuoteCacheTTL:     5 * time.Minute,
		},
		Routing: RoutingConfig{
			OSRMBaseURL: "https://router.project-osrm.org",
		},
	}
}

// Load reads configuration from an optional YAML file and TOLLCALC_
// environment overrides, on top of the defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.cors_origins", defaults.Server.CorsOrigins)
	v.SetDefault("toll.stations_file", defaults.Toll.StationsFile)
	v.SetDefault("toll.matrices", defaults.Toll.Matrices)
	v.SetDefault("toll.densify_step_meters", defaults.Toll.DensifyStepMeters)
	v.SetDefault("toll.tolerance_meters", defaults.Toll.ToleranceMeters)
	v.SetDefault("toll.strict_matrix_parsing", defaults.Toll.StrictMatrixParsing)
	v.SetDefault("toll.quote_cache_ttl", defaults.Toll.QuoteCacheTTL)
	v.SetDefault("routing.osrm_base_url", defaults.Routing.OSRMBaseURL)

	v.SetEnvPrefix("TOLLCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field invariants the pipeline depends on
func (c *Config) Validate() error {
	if c.Toll.DensifyStepMeters <= 0 {
		return fmt.Errorf("toll.densify_step_meters must be positive")
	}
	if c.Toll.ToleranceMeters <= 0 {
		return fmt.Errorf("toll.tolerance_meters must be positive")
	}
	if c.Toll.DensifyStepMeters >= c.Toll.ToleranceMeters {
		return fmt.Errorf("toll.densify_step_meters (%.0f) must be strictly smaller than toll.tolerance_meters (%.0f)",
			c.Toll.DensifyStepMeters, c.Toll.ToleranceMeters)
	}
	return nil
}
