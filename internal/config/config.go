// Package config holds the store parameters of a dsync session. Values come
// from an optional YAML file and are overridden by command line flags and
// environment variables.
package config

import (
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	SourceDrive = "drive"
	SourceLocal = "local"

	DestinationMinio = "minio"
	DestinationAzure = "azblob"

	DefaultPageSize  = 10
	DefaultContainer = "dsync"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the full session configuration
type Config struct {
	Source      Source      `yaml:"source"`
	Destination Destination `yaml:"destination"`
	Debug       bool        `yaml:"debug"`
}

// Source configures the document store files are read from
type Source struct {
	Kind        string `yaml:"kind"`
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token"`
	Endpoint    string `yaml:"endpoint"`
	PageSize    int64  `yaml:"page_size"`
	Dir         string `yaml:"dir"`
}

// Destination configures the object store files are written to
type Destination struct {
	Kind      string `yaml:"kind"`
	Container string `yaml:"container"`
	Folder    string `yaml:"folder"`

	// minio
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Insecure  bool   `yaml:"insecure"`

	// azblob
	AccountName string `yaml:"account_name"`
	SASToken    string `yaml:"sas_token"`
	ServiceURL  string `yaml:"service_url"`
}

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Source: Source{
			Kind:     SourceDrive,
			PageSize: DefaultPageSize,
		},
		Destination: Destination{
			Kind:      DestinationMinio,
			Container: DefaultContainer,
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize lowercases the backend kinds and cleans up the folder prefix
func (c *Config) Normalize() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Destination.Kind = strings.ToLower(strings.TrimSpace(c.Destination.Kind))
	if c.Source.PageSize <= 0 {
		c.Source.PageSize = DefaultPageSize
	}
	if c.Destination.Container == "" {
		c.Destination.Container = DefaultContainer
	}

	folder := strings.Trim(strings.ReplaceAll(c.Destination.Folder, "\\", "/"), "/")
	if folder != "" {
		folder += "/"
	}
	c.Destination.Folder = folder
}

// Validate checks that each selected backend has what it needs to connect
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDrive:
		if c.Source.AccessToken == "" {
			return errors.Errorf("%w: drive source requires an access token", ErrInvalidConfig)
		}
	case SourceLocal:
		if c.Source.Dir == "" {
			return errors.Errorf("%w: local source requires a directory", ErrInvalidConfig)
		}
	default:
		return errors.Errorf("%w: unknown source kind %q", ErrInvalidConfig, c.Source.Kind)
	}

	switch c.Destination.Kind {
	case DestinationMinio:
		if c.Destination.Endpoint == "" || c.Destination.AccessKey == "" || c.Destination.SecretKey == "" {
			return errors.Errorf("%w: minio destination requires endpoint, access key and secret key", ErrInvalidConfig)
		}
	case DestinationAzure:
		if c.Destination.ServiceURL == "" && c.Destination.AccountName == "" {
			return errors.Errorf("%w: azblob destination requires an account name or service url", ErrInvalidConfig)
		}
	default:
		return errors.Errorf("%w: unknown destination kind %q", ErrInvalidConfig, c.Destination.Kind)
	}
	return nil
}
