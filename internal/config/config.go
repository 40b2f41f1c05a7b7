package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server and dbtool need at startup.
// Precedence: defaults < YAML file (CONFIG_FILE) < environment.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	DBDriver    string `yaml:"db_driver"`
	DatabaseURL string `yaml:"database_url"`
	DBPath      string `yaml:"db_path"`
	SeedPath    string `yaml:"seed_path"`

	RedisURL  string `yaml:"redis_url"`
	JWTSecret string `yaml:"jwt_secret"`

	ORS     ORSConfig     `yaml:"ors"`
	Routing RoutingConfig `yaml:"routing"`
}

// ORSConfig configures the OpenRouteService client.
type ORSConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Profile     string `yaml:"profile"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// RoutingConfig holds the sequencing and fallback tunables.
type RoutingConfig struct {
	AverageSpeedMPH   float64       `yaml:"average_speed_mph"`
	PlaceholderMiles  float64       `yaml:"placeholder_miles"`
	LookupParallelism int           `yaml:"lookup_parallelism"`
	DistanceCacheTTL  time.Duration `yaml:"distance_cache_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		DBDriver: "pgx",
		DBPath:   "data/app.db",
		SeedPath: "data/seeds/routes.json",
		ORS: ORSConfig{
			BaseURL:     "https://api.openrouteservice.org",
			Profile:     "driving-hgv",
			MaxAttempts: 1,
		},
		Routing: RoutingConfig{
			AverageSpeedMPH:   50,
			PlaceholderMiles:  100,
			LookupParallelism: 4,
			DistanceCacheTTL:  7 * 24 * time.Hour,
		},
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("load config: parse %q: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Port = Get("PORT", c.Port)
	c.LogLevel = Get("LOG_LEVEL", c.LogLevel)
	c.DBDriver = Get("DB_DRIVER", c.DBDriver)
	c.DatabaseURL = Get("DATABASE_URL", c.DatabaseURL)
	c.DBPath = Get("DB_PATH", c.DBPath)
	c.SeedPath = Get("SEED_PATH", c.SeedPath)
	c.RedisURL = Get("REDIS_URL", c.RedisURL)
	c.JWTSecret = Get("JWT_SECRET", c.JWTSecret)

	c.ORS.APIKey = Get("ORS_API_KEY", c.ORS.APIKey)
	c.ORS.BaseURL = Get("ORS_BASE_URL", c.ORS.BaseURL)
	c.ORS.Profile = Get("ORS_PROFILE", c.ORS.Profile)

	var err error
	if c.ORS.MaxAttempts, err = getInt("ORS_MAX_ATTEMPTS", c.ORS.MaxAttempts); err != nil {
		return err
	}
	if c.Routing.AverageSpeedMPH, err = getFloat("AVERAGE_SPEED_MPH", c.Routing.AverageSpeedMPH); err != nil {
		return err
	}
	if c.Routing.PlaceholderMiles, err = getFloat("PLACEHOLDER_MILES", c.Routing.PlaceholderMiles); err != nil {
		return err
	}
	if c.Routing.LookupParallelism, err = getInt("LOOKUP_PARALLELISM", c.Routing.LookupParallelism); err != nil {
		return err
	}
	if v := os.Getenv("DISTANCE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("load config: DISTANCE_CACHE_TTL: %w", err)
		}
		c.Routing.DistanceCacheTTL = d
	}

	return nil
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q (want pgx or sqlite)", c.DBDriver)
	}
	if c.Routing.AverageSpeedMPH <= 0 {
		return fmt.Errorf("config: average speed must be positive, got %v", c.Routing.AverageSpeedMPH)
	}
	if c.Routing.PlaceholderMiles <= 0 {
		return fmt.Errorf("config: placeholder miles must be positive, got %v", c.Routing.PlaceholderMiles)
	}
	if c.Routing.LookupParallelism < 1 {
		return fmt.Errorf("config: lookup parallelism must be at least 1, got %d", c.Routing.LookupParallelism)
	}
	if c.ORS.MaxAttempts < 1 {
		return fmt.Errorf("config: ORS max attempts must be at least 1, got %d", c.ORS.MaxAttempts)
	}
	return nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	return f, nil
}
