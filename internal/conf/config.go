// config.go: settings struct and functions to load and save the application settings.
package conf

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogSettings contains settings for application log output.
type LogSettings struct {
	Enabled    bool   // true to write logs to a file in addition to stdout
	Path       string // path to log file
	MaxSize    int    // maximum log file size in megabytes before rotation
	MaxAge     int    // maximum age of rotated log files in days
	MaxBackups int    // maximum number of rotated log files to keep
	JSON       bool   // true to emit structured JSON instead of text
}

// DetectorSettings contains settings for the leaf disease detection model.
type DetectorSettings struct {
	ModelPath string  // path to the TensorFlow Lite detection model
	LabelPath string  // path to the class label file, one label per line
	Threshold float64 // default user-facing confidence threshold
	InputSize int     // square input resolution expected by the model
	IoU       float64 // IoU threshold for non-maximum suppression
}

// ImageStoreSettings contains settings for saved detection images.
type ImageStoreSettings struct {
	Path string // directory where uploaded images are stored
}

// WebServerSettings contains settings for the HTTP server.
type WebServerSettings struct {
	Address string // interface to bind to
	Port    string // port to listen on
	Debug   bool   // true to enable request debug logging
}

// SecuritySettings contains settings for authentication and sessions.
type SecuritySettings struct {
	SessionSecret   string        // secret key for session cookies
	SessionDuration time.Duration // how long login sessions remain valid
	RedirectToHTTPS bool          // true when served behind TLS
}

// OutputSettings contains settings for the persistence backend.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to use SQLite
		Path    string // path to SQLite database file
	}
	MySQL struct {
		Enabled  bool   // true to use MySQL
		Username string // MySQL username
		Password string // MySQL password
		Database string // MySQL database name
		Host     string // MySQL host
		Port     string // MySQL port
	}
}

// Settings is the top level configuration for the application.
type Settings struct {
	Debug bool // true to enable debug output

	Main struct {
		Name string      // instance name
		Log  LogSettings // log settings
	}

	Detector   DetectorSettings
	ImageStore ImageStoreSettings
	WebServer  WebServerSettings
	Security   SecuritySettings
	Output     OutputSettings
}

// Load reads the configuration into a new Settings struct, applying defaults
// for anything the config file does not set.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with defaults and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err = viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// No config file found, defaults apply. Create one so the user has
		// something to edit.
		if err := createDefaultConfig(); err != nil {
			log.Printf("warning: unable to write default config file: %v", err)
		}
	}

	// Session cookies need a stable secret; generate one on first run.
	if viper.GetString("security.sessionsecret") == "" {
		viper.Set("security.sessionsecret", GenerateRandomSecret())
	}

	return nil
}

// createDefaultConfig writes a config file with current defaults into the
// first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	return viper.SafeWriteConfigAs(configPath)
}

// SaveSettings writes the current settings to the given path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings to file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for the
// config file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		filepath.Join(homeDir, ".config", "melonguard-go"),
		".",
	}, nil
}

// GenerateRandomSecret generates a URL-safe base64 encoded random secret.
func GenerateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// Fall back to an empty secret, the caller treats this as fatal
		// when sessions are enabled.
		log.Printf("error generating random secret: %v", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
