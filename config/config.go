package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Defaults exist for every field so a fresh checkout runs without any setup;
// production deployments must override SecretKey and AdminPassword.
type AppConfig struct {
	AppPort     string
	SecretKey   string
	DatabaseURL string
	// Gin framework configuration
	GinMode        string
	GinPath        string
	AllowedOrigins []string
	// Session cookie
	SessionCookieName  string
	SessionMaxAgeHours int
	SessionSecure      bool
	// Redis backs the session revocation list; empty host keeps it in memory
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Bootstrap administrator
	AdminEmail    string
	AdminPassword string
}

// DefaultPath is where Load looks for the optional JSON file.
const DefaultPath = "config/config.json"

// DevSecretKey signs sessions when SECRET_KEY is not set.
const DevSecretKey = "dev-secret-key-change-in-production"

// Load builds the configuration.
// Precedence: JSON file -> defaults -> environment variable overrides.
// A missing file is not an error; malformed JSON is.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := loadJSONConfig(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// UsesDevSecret reports whether a release build still signs sessions with the
// development key.
func (c AppConfig) UsesDevSecret() bool {
	return c.SecretKey == DevSecretKey && strings.EqualFold(c.GinMode, "release")
}

// RedisEnabled reports whether a Redis server was configured.
func (c AppConfig) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisHost) != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

type fileConfig struct {
	App struct {
		Port           string   `json:"Port"`
		SecretKey      string   `json:"SecretKey"`
		AllowedOrigins []string `json:"AllowedOrigins"`
	} `json:"app"`
	Gin struct {
		Mode    string `json:"Mode"`
		LogPath string `json:"LogPath"`
	} `json:"gin"`
	Database struct {
		URL string `json:"URL"`
	} `json:"database"`
	Redis struct {
		Host     string `json:"Host"`
		Port     int    `json:"Port"`
		DB       int    `json:"DB"`
		Password string `json:"Password"`
	} `json:"redis"`
	Session struct {
		CookieName  string `json:"CookieName"`
		MaxAgeHours int    `json:"MaxAgeHours"`
		Secure      bool   `json:"Secure"`
	} `json:"session"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`
	Admin struct {
		Email    string `json:"Email"`
		Password string `json:"Password"`
	} `json:"admin"`
}

// loadJSONConfig reads the grouped JSON file into out if present.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	var raw fileConfig
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	out.AppPort = raw.App.Port
	out.SecretKey = raw.App.SecretKey
	out.AllowedOrigins = raw.App.AllowedOrigins
	out.GinMode = raw.Gin.Mode
	out.GinPath = raw.Gin.LogPath
	out.DatabaseURL = raw.Database.URL
	out.RedisHost = raw.Redis.Host
	out.RedisPort = raw.Redis.Port
	out.RedisDB = raw.Redis.DB
	out.RedisPassword = raw.Redis.Password
	out.SessionCookieName = raw.Session.CookieName
	out.SessionMaxAgeHours = raw.Session.MaxAgeHours
	out.SessionSecure = raw.Session.Secure
	out.LogLevel = raw.Log.Level
	out.LogPath = raw.Log.Path
	out.LogMaxSizeMB = raw.Log.MaxSizeMB
	out.LogMaxBackups = raw.Log.MaxBackups
	out.LogMaxAgeDays = raw.Log.MaxAgeDays
	out.LogCompress = raw.Log.Compress
	out.AdminEmail = raw.Admin.Email
	out.AdminPassword = raw.Admin.Password
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8001"
	}
	if c.SecretKey == "" {
		c.SecretKey = DevSecretKey
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite:///blog.db"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = "session"
	}
	if c.SessionMaxAgeHours == 0 {
		c.SessionMaxAgeHours = 24 * 7
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@example.com"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin123"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var firstErr error
	atoi := func(key, val string) int {
		i, err := strconv.Atoi(val)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.New("invalid integer value for " + key + ": " + val)
			}
			return 0
		}
		return i
	}

	if v := getEnv("PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("SECRET_KEY", ""); v != "" {
		c.SecretKey = v
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		c.DatabaseURL = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("SESSION_COOKIE_NAME", ""); v != "" {
		c.SessionCookieName = v
	}
	if v := getEnv("SESSION_MAX_AGE_HOURS", ""); v != "" {
		c.SessionMaxAgeHours = atoi("SESSION_MAX_AGE_HOURS", v)
	}
	if v := getEnv("SESSION_SECURE", ""); v != "" {
		c.SessionSecure = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = atoi("REDIS_PORT", v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = atoi("REDIS_DB", v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = atoi("LOG_MAX_SIZE_MB", v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = atoi("LOG_MAX_BACKUPS", v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = atoi("LOG_MAX_AGE_DAYS", v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("ADMIN_EMAIL", ""); v != "" {
		c.AdminEmail = v
	}
	if v := getEnv("ADMIN_PASSWORD", ""); v != "" {
		c.AdminPassword = v
	}

	return firstErr
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
