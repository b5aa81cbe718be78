package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	DBDriver    string // "sqlite" or "postgres"
	DatabaseURL string
	GameName    string

	LogLevel  string
	LogFormat string // "json" or "console"

	PublicURL      string   // overrides the host-derived join URL encoded in /qr
	AllowedOrigins []string // websocket origin patterns; empty means same-origin only
	WSWriteTimeout time.Duration
	OutboxSize     int

	RedisAddr     string // empty disables the leaderboard mirror
	RedisPassword string
	RedisKey      string

	BackupDir       string // empty disables backup on shutdown
	ShutdownTimeout time.Duration
}

// Load reads .env (if present), then flags, then environment variables, then defaults.
// A flag always beats the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	flags := flag.NewFlagSet("scoreboard", flag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", "", "HTTP listen address (ADDR)")
	flags.StringVar(&cfg.DBDriver, "db-driver", "", "database driver: sqlite or postgres (DB_DRIVER)")
	flags.StringVar(&cfg.DatabaseURL, "db-dsn", "", "database DSN or sqlite file (DATABASE_URL)")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.StringVar(&cfg.LogFormat, "log-format", "", "json or console (LOG_FORMAT)")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Addr = firstNonEmpty(cfg.Addr, os.Getenv("ADDR"), ":8080")
	cfg.DBDriver = firstNonEmpty(cfg.DBDriver, os.Getenv("DB_DRIVER"), "sqlite")
	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), "leaderboard.db")
	cfg.GameName = firstNonEmpty(os.Getenv("GAME_NAME"), "Scoreboard")
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), "info")
	cfg.LogFormat = firstNonEmpty(cfg.LogFormat, os.Getenv("LOG_FORMAT"), "json")
	cfg.PublicURL = strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisKey = firstNonEmpty(os.Getenv("REDIS_KEY"), "scoreboard:leaderboard")
	cfg.BackupDir = os.Getenv("BACKUP_DIR")

	var err error
	if cfg.WSWriteTimeout, err = getDuration("WS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OutboxSize, err = getInt("OUTBOX_SIZE", 32); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.OutboxSize < 1 {
		return errors.New("OUTBOX_SIZE must be at least 1")
	}
	if c.WSWriteTimeout <= 0 {
		return errors.New("WS_WRITE_TIMEOUT must be positive")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid PUBLIC_URL %q", c.PublicURL)
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}
