package config

import (
	"os"
	"path/filepath"
)

const (
	appNameEnvVar          = "TESTBOARD_APP_NAME"
	envEnvVar              = "TESTBOARD_ENV"
	logLevelEnvVar         = "TESTBOARD_LOG_LEVEL"
	timeoutEnvVar          = "TESTBOARD_TIMEOUT"
	apiBaseURLEnvVar       = "TESTBOARD_API_BASE_URL"
	originEnvVar           = "TESTBOARD_ORIGIN"
	tokenStoreEnvVar       = "TESTBOARD_TOKEN_STORE"
	tokenPathEnvVar        = "TESTBOARD_TOKEN_PATH"
	backendEnvVar          = "TESTBOARD_BACKEND"
	oidcIssuerEnvVar       = "TESTBOARD_OIDC_ISSUER"
	oidcClientIDEnvVar     = "TESTBOARD_OIDC_CLIENT_ID"
	oidcClientSecretEnvVar = "TESTBOARD_OIDC_CLIENT_SECRET"
)

type EnvVars struct {
	file *FileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return lookup(appNameEnvVar, e.file.AppName, "Testboard")
}

func (e EnvVars) GetEnv() string {
	return lookup(envEnvVar, e.file.Env, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return lookup(logLevelEnvVar, e.file.LogLevel, "info")
}

// GetTimeout returns the HTTP timeout as a duration string (e.g. "30s").
func (e EnvVars) GetTimeout() string {
	return lookup(timeoutEnvVar, e.file.Timeout, "30s")
}

type Storage struct {
	file *FileValues
}

var _ StorageConfig = Storage{}

// GetTokenStore returns the token store kind: file, sqlite or memory.
func (s Storage) GetTokenStore() string {
	return lookup(tokenStoreEnvVar, s.file.TokenStore, "file")
}

func (s Storage) GetTokenPath() string {
	return lookup(tokenPathEnvVar, s.file.TokenPath, defaultTokenPath(s.GetTokenStore()))
}

func defaultTokenPath(kind string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	name := "session.json"
	if kind == "sqlite" {
		name = "session.db"
	}
	return filepath.Join(dir, "testboard", name)
}

type Backend struct {
	file *FileValues
}

var _ BackendConfig = Backend{}

// GetBackend returns the identity backend: fake, rest or oidc.
func (b Backend) GetBackend() string {
	return lookup(backendEnvVar, b.file.Backend, "rest")
}

func (b Backend) GetOIDCIssuer() string {
	return lookup(oidcIssuerEnvVar, b.file.OIDCIssuer, "")
}

func (b Backend) GetOIDCClientID() string {
	return lookup(oidcClientIDEnvVar, b.file.OIDCClientID, "testboard")
}

func (b Backend) GetOIDCClientSecret() string {
	return lookup(oidcClientSecretEnvVar, b.file.OIDCClientSecret, "")
}

func lookup(envVar, fileValue, defaultValue string) string {
	if fileValue != "" {
		defaultValue = fileValue
	}
	return GetEnv(envVar, defaultValue)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
