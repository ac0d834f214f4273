package config

import (
	"time"
)

type Config interface {
	EnvConfig
	LogConfig
	TransportConfig
	DocuSignConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type LogConfig interface {
	GetLogLevel() string
	GetLogFormat() string
}

type TransportConfig interface {
	GetTransport() Transport
	GetPort() string
	GetHTTPTimeout() time.Duration
}

// DocuSignConfig is the JWT grant configuration. Values are read and
// validated once by New and never change afterwards.
type DocuSignConfig interface {
	GetAuthBaseURL() string
	GetIntegrationKey() string
	GetImpersonatedUserID() string
	GetOAuthScopes() []string
	GetPrivateKeySource() PrivateKeySource
	GetTokenLifetime() time.Duration
}

type mainConfig struct {
	EnvVars
	Logging
	Transports
	DocuSign
}

// New loads the configuration from the environment.
func New() (Config, error) {
	ds, err := LoadDocuSign()
	if err != nil {
		return nil, err
	}
	return mainConfig{DocuSign: ds}, nil
}
