package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	BackendConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetTimeout() string
}

type StorageConfig interface {
	GetTokenStore() string
	GetTokenPath() string
}

type BackendConfig interface {
	GetBackend() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
}

// FileValues mirrors the optional YAML configuration file. Environment
// variables always win over values read from the file.
type FileValues struct {
	AppName          string `yaml:"app_name"`
	Env              string `yaml:"env"`
	LogLevel         string `yaml:"log_level"`
	Timeout          string `yaml:"timeout"`
	APIBaseURL       string `yaml:"api_base_url"`
	Origin           string `yaml:"origin"`
	TokenStore       string `yaml:"token_store"`
	TokenPath        string `yaml:"token_path"`
	Backend          string `yaml:"backend"`
	OIDCIssuer       string `yaml:"oidc_issuer"`
	OIDCClientID     string `yaml:"oidc_client_id"`
	OIDCClientSecret string `yaml:"oidc_client_secret"`
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Backend
}

func New() Config {
	return fromValues(&FileValues{})
}

// Load reads a YAML configuration file. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config.Load] read %s: %w", path, err)
	}
	values := &FileValues{}
	if err := yaml.Unmarshal(data, values); err != nil {
		return nil, fmt.Errorf("[config.Load] parse %s: %w", path, err)
	}
	return fromValues(values), nil
}

func fromValues(values *FileValues) Config {
	return mainConfig{
		EnvVars: EnvVars{file: values},
		API:     API{file: values},
		Storage: Storage{file: values},
		Backend: Backend{file: values},
	}
}
