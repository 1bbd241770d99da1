package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should fall back to defaults without file or environment", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)
		assert.Equal(t, "8001", cfg.AppPort)
		assert.Equal(t, "sqlite:///blog.db", cfg.DatabaseURL)
		assert.Equal(t, "session", cfg.SessionCookieName)
		assert.Equal(t, 168, cfg.SessionMaxAgeHours)
		assert.Empty(t, cfg.AllowedOrigins)
		assert.Equal(t, "admin@example.com", cfg.AdminEmail)
		assert.Equal(t, "admin123", cfg.AdminPassword)
		assert.False(t, cfg.RedisEnabled())
	})

	t.Run("Should read the grouped JSON file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"app": {"Port": "9000", "SecretKey": "from-file"},
			"database": {"URL": "postgres://u:p@db:5432/blog"},
			"redis": {"Host": "cache", "Port": 6380},
			"admin": {"Email": "root@blog.test"}
		}`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.AppPort)
		assert.Equal(t, "from-file", cfg.SecretKey)
		assert.Equal(t, "postgres://u:p@db:5432/blog", cfg.DatabaseURL)
		assert.Equal(t, 6380, cfg.RedisPort)
		assert.True(t, cfg.RedisEnabled())
		assert.Equal(t, "root@blog.test", cfg.AdminEmail)
	})

	t.Run("Should let the environment win over the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"app": {"Port": "9000"}}`), 0o600))
		t.Setenv("PORT", "7000")
		t.Setenv("SECRET_KEY", "from-env")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test ,")
		t.Setenv("SESSION_SECURE", "true")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.AppPort)
		assert.Equal(t, "from-env", cfg.SecretKey)
		assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
		assert.True(t, cfg.SessionSecure)
	})

	t.Run("Should reject malformed numbers and JSON", func(t *testing.T) {
		t.Setenv("REDIS_PORT", "not-a-port")
		_, err := Load("")
		assert.ErrorContains(t, err, "REDIS_PORT")

		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
		_, err = Load(path)
		assert.Error(t, err)
	})
}

func TestParseDatabaseURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		dialect string
		dsn     string
	}{
		{"Should map a relative sqlite path", "sqlite:///blog.db", DialectSQLite, "blog.db"},
		{"Should map an absolute sqlite path", "sqlite:////var/lib/blog.db", DialectSQLite, "/var/lib/blog.db"},
		{"Should keep postgres urls", "postgres://u:p@db:5432/blog", DialectPostgres, "postgres://u:p@db:5432/blog"},
		{"Should accept the postgresql scheme", "postgresql://u@db/blog", DialectPostgres, "postgresql://u@db/blog"},
		{"Should convert mysql urls to driver DSNs", "mysql://u:p@db:3306/blog", DialectMySQL, "u:p@tcp(db:3306)/blog?charset=utf8mb4&loc=Local&parseTime=True"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			dialect, dsn, err := ParseDatabaseURL(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.dialect, dialect)
			assert.Equal(t, tc.dsn, dsn)
		})
	}

	t.Run("Should reject unknown schemes", func(t *testing.T) {
		_, _, err := ParseDatabaseURL("mongodb://db/blog")
		assert.Error(t, err)
	})
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "blog.db?_pragma=foreign_keys(1)", withForeignKeys("blog.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", withForeignKeys("file:x?mode=memory"))
}

func TestAppConfig_UsesDevSecret(t *testing.T) {
	cases := []struct {
		name     string
		cfg      AppConfig
		expected bool
	}{
		{"Should flag the development key in release mode", AppConfig{SecretKey: DevSecretKey, GinMode: "release"}, true},
		{"Should not flag debug runs", AppConfig{SecretKey: DevSecretKey, GinMode: "debug"}, false},
		{"Should not flag a configured key", AppConfig{SecretKey: "s3cret", GinMode: "release"}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.UsesDevSecret())
		})
	}

	t.Run("Should default to the development key", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "")
		t.Setenv("GIN_MODE", "")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DevSecretKey, cfg.SecretKey)
		assert.True(t, cfg.UsesDevSecret())
	})
}
