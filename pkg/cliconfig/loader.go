package cliconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory under the user config dir holding the
// global config file.
const GlobalConfigDir = "recadm"

// LocalConfigFileNames are searched in the current directory, in order.
var LocalConfigFileNames = []string{".recadmrc.yaml", ".recadmrc.yml"}

// GlobalConfigFileNames are searched under the global config dir, in order.
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// EnvAPIURL is the environment variable naming the records API base URL.
const EnvAPIURL = "RECADM_API_URL"

// Remaining environment variables.
const (
	EnvListen    = "RECADM_LISTEN"
	EnvLogLevel  = "RECADM_LOG_LEVEL"
	EnvLogFormat = "RECADM_LOG_FORMAT"
	EnvLogFile   = "RECADM_LOG_FILE"
	EnvCacheTTL  = "RECADM_CACHE_TTL"
)

// ConfigError reports a config file that exists but cannot be parsed.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Path + ": " + e.Message
}

// findLocalConfig searches the current directory for a local config file.
func findLocalConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findGlobalConfig returns the path of the global config file, or "".
func findGlobalConfig() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFile loads a Config from a YAML file. Unset members stay zero so
// merging can tell them apart from explicit values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error()}
	}
	return &cfg, nil
}

// merge copies non-zero values from src over dst, tagging their source.
func merge(dst, src *Config, source string) {
	if src.APIURL != "" {
		dst.APIURL = src.APIURL
		dst.Sources["apiUrl"] = source
	}
	if src.Listen != "" {
		dst.Listen = src.Listen
		dst.Sources["listen"] = source
	}
	if src.CacheTTL > 0 {
		dst.CacheTTL = src.CacheTTL
		dst.Sources["cacheTtl"] = source
	}
	if len(src.ImportRequire) > 0 {
		dst.ImportRequire = append([]string(nil), src.ImportRequire...)
		dst.Sources["importRequire"] = source
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
		dst.Sources["logLevel"] = source
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
		dst.Sources["logFormat"] = source
	}
	if src.LogFile != "" {
		dst.LogFile = src.LogFile
		dst.Sources["logFile"] = source
	}
}

// applyEnv overlays RECADM_* environment variables.
func applyEnv(cfg *Config) {
	set := func(env, key string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
			cfg.Sources[key] = SourceEnv
		}
	}
	set(EnvAPIURL, "apiUrl", func(v string) { cfg.APIURL = v })
	set(EnvListen, "listen", func(v string) { cfg.Listen = v })
	set(EnvLogLevel, "logLevel", func(v string) { cfg.LogLevel = v })
	set(EnvLogFormat, "logFormat", func(v string) { cfg.LogFormat = v })
	set(EnvLogFile, "logFile", func(v string) { cfg.LogFile = v })
	// Accepts plain seconds or a duration string; a bad value is ignored.
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = n
			cfg.Sources["cacheTtl"] = SourceEnv
		} else if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = int(d.Seconds())
			cfg.Sources["cacheTtl"] = SourceEnv
		}
	}
}

// LoadAll resolves configuration from every source except flags.
// Config file errors are deliberately non-fatal: a broken rc file must
// not take the console down, defaults still apply.
func LoadAll() *Config {
	cfg := NewDefault()

	if path := findGlobalConfig(); path != "" {
		if fileCfg, err := LoadFile(path); err == nil {
			merge(cfg, fileCfg, SourceGlobal)
		}
	}
	if path := findLocalConfig(); path != "" {
		if fileCfg, err := LoadFile(path); err == nil {
			merge(cfg, fileCfg, SourceLocal)
		}
	}
	applyEnv(cfg)
	return cfg
}

// ResolveAPIURL returns the effective API base URL: an explicit flag wins,
// then env, config files, and the hosted default.
func ResolveAPIURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return LoadAll().APIURL
}
