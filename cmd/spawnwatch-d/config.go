package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const defaultAddr = "127.0.0.1:8190"

// Config is resolved from the environment (SPAWNWATCH_* variables) first,
// then overridden by flags.
type Config struct {
	DBPath      string `envconfig:"DB_PATH"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	Addr        string `envconfig:"ADDR"`
	AdminSecret string `envconfig:"ADMIN_SECRET" default:"admin123"`
	SeedPath    string `envconfig:"SEED_PATH"`
	BackupDir   string `envconfig:"BACKUP_DIR"`
	BackupKeep  int    `envconfig:"BACKUP_KEEP" default:"14"`
	BackupCron  string `envconfig:"BACKUP_CRON" default:"0 3 * * *"`
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("spawnwatch", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cwd, "spawnwatch.db")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	flagSet := flag.NewFlagSet("spawnwatch-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", cfg.DBPath, "path to SQLite database")
	flagRedis := flagSet.String("redis", cfg.RedisAddr, "redis address for a shared profile (replaces sqlite)")
	flagAddr := flagSet.String("addr", cfg.Addr, "HTTP listen address")
	flagSecret := flagSet.String("admin-secret", cfg.AdminSecret, "admin gate secret")
	flagSeed := flagSet.String("seed", cfg.SeedPath, "YAML seed catalog override")
	flagBackupDir := flagSet.String("backup-dir", cfg.BackupDir, "snapshot archive directory (empty disables backups)")
	flagBackupKeep := flagSet.Int("backup-keep", cfg.BackupKeep, "archived snapshots to retain")
	flagBackupCron := flagSet.String("backup-cron", cfg.BackupCron, "cron spec for catalog backups")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	cfg = Config{
		DBPath:      resolvePath(*flagDB, cwd),
		RedisAddr:   strings.TrimSpace(*flagRedis),
		Addr:        strings.TrimSpace(*flagAddr),
		AdminSecret: *flagSecret,
		SeedPath:    resolvePath(*flagSeed, cwd),
		BackupDir:   resolvePath(*flagBackupDir, cwd),
		BackupKeep:  *flagBackupKeep,
		BackupCron:  strings.TrimSpace(*flagBackupCron),
	}

	if cfg.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if cfg.BackupKeep < 0 {
		return Config{}, errors.New("backup-keep cannot be negative")
	}
	if cfg.BackupDir != "" && cfg.BackupCron == "" {
		return Config{}, errors.New("backup-dir requires a backup-cron spec")
	}

	return cfg, nil
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
