// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/aristath/goalsip/internal/modules/returns"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the history database and imports (always absolute)
	Port                int
	LogLevel            string
	DevMode             bool
	ProfilesFile        string // Optional YAML risk-profile table; built-in defaults when empty
	BaseCurrency        string
	ImportDir           string
	ImportSchedule      string
	MaintenanceSchedule string // Integrity check, WAL checkpoint and disk space watch; empty disables it
	Simulation          SimulationConfig
	Backup              BackupConfig
}

// SimulationConfig holds Monte Carlo and estimation settings
type SimulationConfig struct {
	NumSimulations    int
	TargetProbability float64
	Seed              uint64
	Workers           int
	EstimationMode    string
}

// BackupConfig holds history database backup settings (S3-compatible storage)
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("GOALSIP_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	seed, err := getEnvAsUint64("SIMULATION_SEED", 42)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("GO_PORT", 8001),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		ProfilesFile:        getEnv("PROFILES_FILE", ""),
		BaseCurrency:        getEnv("BASE_CURRENCY", "INR"),
		ImportDir:           getEnv("IMPORT_DIR", filepath.Join(absDataDir, "imports")),
		ImportSchedule:      getEnv("IMPORT_SCHEDULE", "0 */30 * * * *"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		Simulation: SimulationConfig{
			NumSimulations:    getEnvAsInt("NUM_SIMULATIONS", 5000),
			TargetProbability: getEnvAsFloat("TARGET_PROBABILITY", 0.90),
			Seed:              seed,
			Workers:           getEnvAsInt("SIMULATION_WORKERS", runtime.NumCPU()),
			EstimationMode:    getEnv("ESTIMATION_MODE", "median"),
		},
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HistoryDBPath returns the location of the history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Mode returns the configured estimation mode
func (c *Config) Mode() returns.Mode {
	mode, err := returns.ParseMode(c.Simulation.EstimationMode)
	if err != nil {
		return returns.Median
	}
	return mode
}

// Validate checks ranges and required fields
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Simulation.NumSimulations <= 0 {
		return fmt.Errorf("NUM_SIMULATIONS must be positive, got %d", c.Simulation.NumSimulations)
	}
	if p := c.Simulation.TargetProbability; p <= 0 || p >= 1 {
		return fmt.Errorf("TARGET_PROBABILITY must be in (0, 1), got %v", p)
	}
	if c.Simulation.Workers <= 0 {
		return fmt.Errorf("SIMULATION_WORKERS must be positive, got %d", c.Simulation.Workers)
	}
	if _, err := returns.ParseMode(c.Simulation.EstimationMode); err != nil {
		return fmt.Errorf("ESTIMATION_MODE: %w", err)
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be a three-letter code, got %q", c.BaseCurrency)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if c.ImportSchedule != "" {
		if _, err := parser.Parse(c.ImportSchedule); err != nil {
			return fmt.Errorf("IMPORT_SCHEDULE: %w", err)
		}
	}
	if c.MaintenanceSchedule != "" {
		if _, err := parser.Parse(c.MaintenanceSchedule); err != nil {
			return fmt.Errorf("MAINTENANCE_SCHEDULE: %w", err)
		}
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" || c.Backup.Endpoint == "" {
			return fmt.Errorf("BACKUP_BUCKET and BACKUP_ENDPOINT are required when backups are enabled")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup credentials are required when backups are enabled")
		}
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("BACKUP_SCHEDULE: %w", err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsUint64 fails on anything that is not an unsigned integer
func getEnvAsUint64(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return v, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
