package observability

import (
	"strings"
	"time"

	"github.com/montessori/ecole/internal/config"
)

// Config is the observability view of the application configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	SQLLogLevel            string
	SQLSlowQuery           time.Duration
	SQLLogRecordNotFound   bool
	SQLLogIncludeVariables bool
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "ecole"
	}
	obs := cfg.Observability
	// Bound values carry family data (names, emails, amounts); only
	// development environments log them.
	logVariables := !cfg.IsProduction() && isDevEnv(cfg.Environment)

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             obs.LogLevel,
		LogFormat:            obs.LogFormat,
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: obs.OtelEndpoint,
		OtelExporterProtocol: obs.OtelProtocol,
		OtelSamplingRatio:    obs.OtelSampling,
		SQLLogLevel:          obs.SQLLogLevel,
		SQLSlowQuery:         obs.SQLSlowQuery,
		SQLLogRecordNotFound: obs.SQLLogNoMatch,

		SQLLogIncludeVariables: logVariables,
	}
}

// Debug reports whether verbose request logging and gin debug mode apply.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
