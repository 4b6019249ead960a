package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Manifest     ManifestConfig     `mapstructure:"manifest"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	Store        StoreConfig        `mapstructure:"store"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	InstallDir string `mapstructure:"install_dir"`
	BufferSize int    `mapstructure:"buffer_size"` // read size for streamed downloads
}

// HTTPConfig configures the pooled client shared by the downloaders
type HTTPConfig struct {
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`
	UserAgent           string        `mapstructure:"user_agent"`
}

// ManifestConfig points at the remote manifest index
type ManifestConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ProgressConfig controls progress event throttling
type ProgressConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// StoreConfig contains job history persistence configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorised JSON logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			InstallDir: "$HOME/BuildFetch/Builds",
			BufferSize: 32 * 1024,
		},
		HTTP: HTTPConfig{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     30 * time.Second,
			RequestTimeout:      60 * time.Second,
			ConnectTimeout:      10 * time.Second,
			UserAgent:           "build-fetch/1.0",
		},
		Manifest: ManifestConfig{
			BaseURL: "https://manifest.example.com",
		},
		Progress: ProgressConfig{
			Interval: 100 * time.Millisecond,
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/BuildFetch/config/jobs.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/BuildFetch/logs",
		},
	}
}
