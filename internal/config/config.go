package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database    DatabaseConfig   `json:"database"`
	Port        int              `json:"port"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Search      SearchConfig     `json:"search"`
	Pagination  PaginationConfig `json:"pagination"`
	Reference   ReferenceConfig  `json:"reference"`
	FileStore   FileStoreConfig  `json:"file_store"`
	CORSOrigins []string         `json:"cors_origins"`
	RateLimitMS int              `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN          string `json:"dsn"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"dbname"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns"`
	Migrate      bool   `json:"migrate"`
}

type SearchConfig struct {
	Dimension             int      `json:"dimension"`
	Metric                string   `json:"metric"`
	DefaultFusionWeight   *float64 `json:"default_fusion_weight"`
	DefaultMatchThreshold float64  `json:"default_match_threshold"`
	DefaultMatchCount     int      `json:"default_match_count"`
	MaxMatchCount         int      `json:"max_match_count"`
	PoolLimit             int      `json:"pool_limit"`
	LexicalSaturation     float64  `json:"lexical_saturation"`
	TimeoutMS             int      `json:"timeout_ms"`
}

type PaginationConfig struct {
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
}

// ReferenceConfig controls where reference rows come from and how they are
// cached. Source is "db" or "snapshot"; a snapshot is a JSON array of rows
// read from the file store under SnapshotKey.
type ReferenceConfig struct {
	Epsilon         float64 `json:"epsilon"`
	Source          string  `json:"source"`
	SnapshotKey     string  `json:"snapshot_key"`
	CacheSize       int     `json:"cache_size"`
	CacheTTLSeconds int     `json:"cache_ttl_seconds"`
	RefreshCron     string  `json:"refresh_cron"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	ReferenceSourceDB       = "db"
	ReferenceSourceSnapshot = "snapshot"
)

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if c.Database.DSN == "" && c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if err := c.Search.normalize(); err != nil {
		return err
	}
	if c.Pagination.DefaultPageSize <= 0 {
		c.Pagination.DefaultPageSize = 20
	}
	if c.Pagination.MaxPageSize <= 0 {
		c.Pagination.MaxPageSize = 100
	}
	if c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("pagination.default_page_size exceeds max_page_size")
	}
	if err := c.Reference.normalize(); err != nil {
		return err
	}
	if c.Reference.Source == ReferenceSourceSnapshot && strings.TrimSpace(c.FileStore.Type) == "" {
		return fmt.Errorf("file_store is required for snapshot reference source")
	}
	if c.RateLimitMS < 0 {
		return fmt.Errorf("rate_limit_ms must not be negative")
	}
	return nil
}

func (s *SearchConfig) normalize() error {
	if s.Dimension == 0 {
		s.Dimension = 1536
	}
	if s.Dimension < 0 {
		return fmt.Errorf("search.dimension must be positive")
	}
	if s.Metric == "" {
		s.Metric = "cosine"
	}
	if s.DefaultFusionWeight == nil {
		w := 0.5
		s.DefaultFusionWeight = &w
	}
	if w := *s.DefaultFusionWeight; w < 0 || w > 1 {
		return fmt.Errorf("search.default_fusion_weight must be within [0,1]")
	}
	if s.DefaultMatchThreshold < 0 || s.DefaultMatchThreshold > 1 {
		return fmt.Errorf("search.default_match_threshold must be within [0,1]")
	}
	if s.MaxMatchCount <= 0 {
		s.MaxMatchCount = 200
	}
	if s.DefaultMatchCount <= 0 {
		s.DefaultMatchCount = 10
	}
	if s.DefaultMatchCount > s.MaxMatchCount {
		return fmt.Errorf("search.default_match_count exceeds max_match_count")
	}
	if s.PoolLimit <= 0 {
		s.PoolLimit = 2000
	}
	if s.LexicalSaturation <= 0 {
		s.LexicalSaturation = 0.1
	}
	if s.TimeoutMS <= 0 {
		s.TimeoutMS = 5000
	}
	return nil
}

func (r *ReferenceConfig) normalize() error {
	if r.Epsilon <= 0 {
		r.Epsilon = 1e-6
	}
	switch r.Source {
	case "":
		r.Source = ReferenceSourceDB
	case ReferenceSourceDB:
	case ReferenceSourceSnapshot:
		if r.SnapshotKey == "" {
			return fmt.Errorf("reference.snapshot_key is required for snapshot source")
		}
	default:
		return fmt.Errorf("reference.source must be db or snapshot")
	}
	if r.CacheSize <= 0 {
		r.CacheSize = 256
	}
	if r.CacheTTLSeconds <= 0 {
		r.CacheTTLSeconds = 600
	}
	return nil
}

func (c *Config) RateLimitDuration() time.Duration {
	return time.Duration(c.RateLimitMS) * time.Millisecond
}

func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

func (r ReferenceConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}
