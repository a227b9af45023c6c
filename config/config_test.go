package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "liberty-blog", cfg.AppName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.ConfirmTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "blogs", cfg.ESBlogsIndex)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5433", DBUser: "svc", DBPassword: "secret",
		DBName: "blogdb", DBSSLMode: "require",
	}
	assert.Equal(t, "postgres://svc:secret@db:5433/blogdb?sslmode=require", cfg.PostgresDSN())
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "http://a.test, http://b.test ,,"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestESAddrs(t *testing.T) {
	cfg := &Config{ElasticsearchAddrs: "http://es1:9200,http://es2:9200"}
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}
