package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAddr      = "127.0.0.1:8490"
	defaultCacheTTL  = 15 * time.Minute
	defaultRetention = 90 * 24 * time.Hour
)

type Config struct {
	DBPath     string
	Addr       string
	RedisAddr  string
	CacheTTL   time.Duration
	ArchiveDir string
	Retention  time.Duration
	TLSCert    string
	TLSKey     string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "faultline.db")

	dbPath := envOrDefault("FAULTLINE_DB_PATH", defaultDBPath)
	addr := addrFromEnv(defaultAddr)
	redisAddr := os.Getenv("FAULTLINE_REDIS_ADDR")
	cacheTTL := defaultCacheTTL
	if ttlEnv := os.Getenv("FAULTLINE_CACHE_TTL"); ttlEnv != "" {
		parsed, err := time.ParseDuration(ttlEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FAULTLINE_CACHE_TTL: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("FAULTLINE_CACHE_TTL must be positive")
		}
		cacheTTL = parsed
	}
	archiveDir := os.Getenv("FAULTLINE_ARCHIVE_DIR")
	retention := defaultRetention
	if retEnv := os.Getenv("FAULTLINE_RETENTION"); retEnv != "" {
		parsed, err := time.ParseDuration(retEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FAULTLINE_RETENTION: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("FAULTLINE_RETENTION must be positive")
		}
		retention = parsed
	}
	tlsCert := os.Getenv("FAULTLINE_TLS_CERT")
	tlsKey := os.Getenv("FAULTLINE_TLS_KEY")

	flagSet := flag.NewFlagSet("faultline-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagRedis := flagSet.String("redis", redisAddr, "Redis address for result caching (empty disables)")
	flagCacheTTL := flagSet.String("cache-ttl", cacheTTL.String(), "cached result lifetime")
	flagArchiveDir := flagSet.String("archive-dir", archiveDir, "directory for archived runs (empty disables archiving)")
	flagRetention := flagSet.String("retention", retention.String(), "how long runs stay in SQLite before archiving")
	flagTLSCert := flagSet.String("tls-cert", tlsCert, "TLS certificate file")
	flagTLSKey := flagSet.String("tls-key", tlsKey, "TLS key file")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	cacheTTLParsed, err := time.ParseDuration(*flagCacheTTL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	if cacheTTLParsed <= 0 {
		return Config{}, errors.New("cache ttl must be positive")
	}

	retentionParsed, err := time.ParseDuration(*flagRetention)
	if err != nil {
		return Config{}, fmt.Errorf("invalid retention: %w", err)
	}
	if retentionParsed <= 0 {
		return Config{}, errors.New("retention must be positive")
	}

	config := Config{
		DBPath:     resolvePath(*flagDB, cwd),
		Addr:       strings.TrimSpace(*flagAddr),
		RedisAddr:  strings.TrimSpace(*flagRedis),
		CacheTTL:   cacheTTLParsed,
		ArchiveDir: strings.TrimSpace(*flagArchiveDir),
		Retention:  retentionParsed,
		TLSCert:    strings.TrimSpace(*flagTLSCert),
		TLSKey:     strings.TrimSpace(*flagTLSKey),
	}

	if config.ArchiveDir != "" {
		config.ArchiveDir = resolvePath(config.ArchiveDir, cwd)
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	if (config.TLSCert == "") != (config.TLSKey == "") {
		return Config{}, errors.New("tls-cert and tls-key must be set together")
	}
	if config.TLSCert != "" {
		config.TLSCert = resolvePath(config.TLSCert, cwd)
		config.TLSKey = resolvePath(config.TLSKey, cwd)
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("FAULTLINE_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("FAULTLINE_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
