package config

import (
	"fmt"
	"strings"
)

func (c mainConfig) GetPort() string {
	port := valueOr(c.settings.Port, "8080")
	// A bare port listens on all interfaces; host:port is used as given
	if !strings.Contains(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (c mainConfig) GetAppName() string {
	return valueOr(c.settings.AppName, "Meeting Form")
}

func (c mainConfig) GetEnv() string {
	return valueOr(c.settings.Env, "DEV")
}

func (c mainConfig) GetLogLevel() string {
	return valueOr(c.settings.LogLevel, "info")
}
