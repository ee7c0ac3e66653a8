// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Index      string   `mapstructure:"index"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds settings for the hybrid match-result cache.
type CacheConfig struct {
	LocalMaxEntries int `mapstructure:"local_max_entries"`
	ResultTTL       int `mapstructure:"result_ttl"`      // seconds, absolute expiry for search results
	ProfileTTL      int `mapstructure:"profile_ttl"`     // seconds, sliding expiry for profile entries
	ProfileTTLCap   int `mapstructure:"profile_ttl_cap"` // seconds, hard ceiling on sliding extension
}

func (c CacheConfig) ResultExpiry() time.Duration  { return time.Duration(c.ResultTTL) * time.Second }
func (c CacheConfig) ProfileExpiry() time.Duration { return time.Duration(c.ProfileTTL) * time.Second }
func (c CacheConfig) ProfileCap() time.Duration    { return time.Duration(c.ProfileTTLCap) * time.Second }

// RateLimitConfig holds sliding-window admission control settings.
type RateLimitConfig struct {
	PerMinute     int `mapstructure:"per_minute"`
	PerFiveMinute int `mapstructure:"per_five_minute"`
}

// MatchingConfig holds search and ranking settings.
type MatchingConfig struct {
	DefaultLimit         int     `mapstructure:"default_limit"`
	MaxLimit             int     `mapstructure:"max_limit"`
	DefaultMinSimilarity float64 `mapstructure:"default_min_similarity"`
	CandidatePoolSize    int     `mapstructure:"candidate_pool_size"`
	SearchTimeout        int     `mapstructure:"search_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
