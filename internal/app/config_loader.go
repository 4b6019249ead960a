package app

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// LoadConfig loads configuration from defaults, an optional .env file, a YAML
// file and BUILDFETCH_* environment variables, in increasing precedence
func LoadConfig(configPath string) (*domain.Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/BuildFetch/config")
		v.AddConfigPath("/etc/build-fetch")
	}

	v.SetEnvPrefix("BUILDFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every config key so AutomaticEnv applies to keys
// absent from the config file
func bindEnvKeys(v *viper.Viper) {
	for key := range configValues(domain.DefaultConfig()) {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.InstallDir = expandPath(config.Download.InstallDir)
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it resolves even where the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.InstallDir == "" {
		return fmt.Errorf("install directory not configured")
	}

	if config.Download.BufferSize < 1 {
		return fmt.Errorf("buffer size must be positive")
	}

	if config.HTTP.MaxIdleConnsPerHost < 1 {
		return fmt.Errorf("max idle connections per host must be at least 1")
	}

	if config.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	u, err := url.Parse(config.Manifest.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid manifest base url: %q", config.Manifest.BaseURL)
	}

	if config.Progress.Interval < 0 {
		return fmt.Errorf("progress interval cannot be negative")
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configValues flattens config into viper keys matching its mapstructure tags
func configValues(c *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                  c.Server.Host,
		"server.port":                  c.Server.Port,
		"download.install_dir":         c.Download.InstallDir,
		"download.buffer_size":         c.Download.BufferSize,
		"http.max_idle_conns_per_host": c.HTTP.MaxIdleConnsPerHost,
		"http.idle_conn_timeout":       c.HTTP.IdleConnTimeout.String(),
		"http.request_timeout":         c.HTTP.RequestTimeout.String(),
		"http.connect_timeout":         c.HTTP.ConnectTimeout.String(),
		"http.user_agent":              c.HTTP.UserAgent,
		"manifest.base_url":            c.Manifest.BaseURL,
		"progress.interval":            c.Progress.Interval.String(),
		"store.database_path":          c.Store.DatabasePath,
		"notification.enabled":         c.Notification.Enabled,
		"notification.method":          c.Notification.Method,
		"logging.level":                c.Logging.Level,
		"logging.format":               c.Logging.Format,
		"logging.output_path":          c.Logging.OutputPath,
		"logging.logs_dir":             c.Logging.LogsDir,
	}
}
