package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Data is the data directory.
	Data string
	// Driver is the database driver: sqlite, postgres.
	Driver string
	// DSN points to the database.
	DSN string
	// Version is the current version of the server.
	Version string

	// AnalysisRangeDays is the trailing window used by the analytics engine.
	AnalysisRangeDays int

	// Calendar integration (optional). When CalendarBaseURL is empty the
	// engine runs with a no-op calendar service.
	CalendarBaseURL string
	CalendarToken   string

	// Telegram notice sink (optional).
	TelegramToken  string
	TelegramChatID int64
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsCalendarEnabled returns true if a remote calendar endpoint is configured.
func (p *Profile) IsCalendarEnabled() bool {
	return p.CalendarBaseURL != ""
}

// IsTelegramEnabled returns true if the telegram notice sink is configured.
func (p *Profile) IsTelegramEnabled() bool {
	return p.TelegramToken != "" && p.TelegramChatID != 0
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.AnalysisRangeDays = getEnvOrDefaultInt("RUTINA_ANALYSIS_RANGE_DAYS", 30)

	p.CalendarBaseURL = getEnvOrDefault("RUTINA_CALENDAR_BASE_URL", "")
	p.CalendarToken = getEnvOrDefault("RUTINA_CALENDAR_TOKEN", "")

	p.TelegramToken = getEnvOrDefault("RUTINA_TELEGRAM_TOKEN", "")
	if chatID := getEnvOrDefault("RUTINA_TELEGRAM_CHAT_ID", ""); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			p.TelegramChatID = id
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "rutina")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					return errors.Wrapf(err, "failed to create data directory %s", p.Data)
				}
			}
		} else {
			p.Data = "/var/opt/rutina"
		}
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return errors.Wrap(err, "failed to check data directory")
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("rutina_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	} else if p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.AnalysisRangeDays <= 0 {
		p.AnalysisRangeDays = 30
	}

	return nil
}
