// Package cliconfig resolves configuration for the recadm CLI and the
// dashboard server.
//
// Values come from multiple sources with the following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (RECADM_*)
//  3. Local config file (.recadmrc.yaml in the current directory)
//  4. Global config file (~/.config/recadm/config.yaml)
//  5. Default values (lowest priority)
//
// The config files stand in for the secrets store the hosted variant of
// this console reads its API base URL from.
package cliconfig

import "time"

// Config is the effective CLI/server configuration.
type Config struct {
	// APIURL is the records API base URL.
	APIURL string `yaml:"apiUrl"`

	// Listen is the dashboard listen address.
	Listen string `yaml:"listen"`

	// CacheTTL is how long the dashboard serves a cached snapshot,
	// in seconds.
	CacheTTL int `yaml:"cacheTtl"`

	// ImportRequire lists fields a CSV row must carry to be imported.
	ImportRequire []string `yaml:"importRequire"`

	// Logging settings.
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty"`

	// Sources tracks where each value came from (for `recadm config`).
	Sources map[string]string `yaml:"-"`
}

// Source names for Config.Sources.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Defaults.
const (
	// DefaultAPIURL is the hosted records API used when nothing else is
	// configured.
	DefaultAPIURL = "https://medchain-mock-api.onrender.com"

	// DefaultListen is the dashboard listen address.
	DefaultListen = ":4317"

	// DefaultCacheTTL matches the hosted console's refresh window,
	// in seconds.
	DefaultCacheTTL = 60
)

// DefaultImportRequire is the default set of fields a CSV row must carry.
var DefaultImportRequire = []string{"name"}

// NewDefault returns a Config with default values, all marked as such.
func NewDefault() *Config {
	cfg := &Config{
		APIURL:        DefaultAPIURL,
		Listen:        DefaultListen,
		CacheTTL:      DefaultCacheTTL,
		ImportRequire: append([]string(nil), DefaultImportRequire...),
		LogLevel:      "info",
		LogFormat:     "text",
		Sources:       make(map[string]string),
	}
	for _, k := range []string{"apiUrl", "listen", "cacheTtl", "importRequire", "logLevel", "logFormat"} {
		cfg.Sources[k] = SourceDefault
	}
	return cfg
}

// CacheTTLDuration returns the snapshot TTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
