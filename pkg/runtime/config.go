package runtime

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents database and mapper configuration.
type Config struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`

	// LoaderConcurrency bounds the relation fetches in flight per load.
	LoaderConcurrency int `yaml:"loader_concurrency"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              5432,
		Database:          "postgres",
		User:              "postgres",
		Password:          "",
		SSLMode:           "prefer",
		MaxConns:          10,
		MinConns:          2,
		LoaderConcurrency: 8,
		LogLevel:          "warn",
	}
}

// LoadConfig reads a YAML file over DefaultConfig and then applies PARCEL_*
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if config.URL == "" && config.Host == "" {
		return nil, ErrNoDatabase
	}
	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PARCEL_DATABASE_URL": &c.URL,
		"PARCEL_DB_HOST":      &c.Host,
		"PARCEL_DB_NAME":      &c.Database,
		"PARCEL_DB_USER":      &c.User,
		"PARCEL_DB_PASSWORD":  &c.Password,
		"PARCEL_DB_SSLMODE":   &c.SSLMode,
		"PARCEL_LOG_LEVEL":    &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("PARCEL_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARCEL_DB_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}
