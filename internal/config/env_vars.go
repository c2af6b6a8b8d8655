package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port         string `env:"PORT"      envDefault:"8080"`
	AppName      string `env:"APP_NAME"  envDefault:"Session Auth"`
	DatabasePath string `env:"DB_PATH"   envDefault:"./data/auth.db"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	Env          string `env:"ENV"       envDefault:"DEV"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDatabasePath() string {
	return e.DatabasePath
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}
