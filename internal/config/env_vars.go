package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	logFormatVar   = "LOG_FORMAT"
	transportVar   = "MCP_TRANSPORT"
	portEnvVar     = "PORT"
	httpTimeoutVar = "DS_HTTP_TIMEOUT_SECS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "DocuSign MCP Server")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

type Logging struct{}

var _ LogConfig = Logging{}

func (Logging) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, "info"))
}

// GetLogFormat returns "console" or "json"
func (Logging) GetLogFormat() string {
	return strings.ToLower(GetEnv(logFormatVar, "console"))
}

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	StdioTransport Transport = "stdio"
	HTTPTransport  Transport = "http"
)

type Transports struct{}

var _ TransportConfig = Transports{}

func (Transports) GetTransport() Transport {
	return Transport(strings.ToLower(GetEnv(transportVar, string(StdioTransport))))
}

func (Transports) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (Transports) GetHTTPTimeout() time.Duration {
	return time.Duration(GetEnvInt(httpTimeoutVar, 30)) * time.Second
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns defaultValue when the variable is unset or not a number.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
