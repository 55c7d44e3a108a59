package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config keeps runtime settings for the planner. It is built once at startup
// and handed to every component that needs it.
type Config struct {
	DataDir             string `toml:"data_dir"`
	DatabaseFile        string `toml:"database_file"`
	PlannerStartHour    int    `toml:"planner_start_hour"`
	PlannerEndHour      int    `toml:"planner_end_hour"`
	DefaultBlockMinutes int    `toml:"default_block_minutes"`
	Timezone            string `toml:"timezone"`
	HTTPAddr            string `toml:"http_addr"`
	LogLevel            string `toml:"log_level"`

	HomeLocationName    string `toml:"home_location_name"`
	HomeLocationAddress string `toml:"home_location_address"`

	GoogleMapsAPIKey string        `toml:"google_maps_api_key"`
	ExternalTimeout  time.Duration `toml:"-"`

	OpenAI   OpenAIConfig   `toml:"openai"`
	Telegram TelegramConfig `toml:"telegram"`
	Schedule ScheduleConfig `toml:"schedule"`
	Calendar CalendarConfig `toml:"calendar"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

type ScheduleConfig struct {
	ReminderInterval     time.Duration `toml:"-"`
	AutoPlanTime         string        `toml:"auto_plan_time"`
	DesktopNotifications bool          `toml:"desktop_notifications"`
}

type CalendarConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	CalendarID      string `toml:"calendar_id"`
}

// fileDurations holds the duration settings, written as strings in TOML.
type fileDurations struct {
	ExternalTimeout string `toml:"external_timeout"`
	Schedule        struct {
		ReminderInterval string `toml:"reminder_interval"`
	} `toml:"schedule"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:             "data",
		DatabaseFile:        "planner.db",
		PlannerStartHour:    9,
		PlannerEndHour:      17,
		DefaultBlockMinutes: 60,
		HTTPAddr:            ":8000",
		LogLevel:            "info",
		HomeLocationName:    "Home",
		ExternalTimeout:     5 * time.Second,
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Schedule: ScheduleConfig{
			ReminderInterval: time.Minute,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file,
// a .env file in the working directory and the environment, in that order.
func Load() (Config, error) {
	// Real environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}

	cfg := DefaultConfig()
	if dir := strings.TrimSpace(os.Getenv("DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}

	path := strings.TrimSpace(os.Getenv("PLANNER_CONFIG"))
	if path == "" {
		path = filepath.Join(cfg.DataDir, "planner.toml")
	}
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	var durations fileDurations
	if err := toml.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if durations.ExternalTimeout != "" {
		d, err := time.ParseDuration(durations.ExternalTimeout)
		if err != nil {
			return fmt.Errorf("external_timeout: %w", err)
		}
		cfg.ExternalTimeout = d
	}
	if durations.Schedule.ReminderInterval != "" {
		d, err := time.ParseDuration(durations.Schedule.ReminderInterval)
		if err != nil {
			return fmt.Errorf("reminder_interval: %w", err)
		}
		cfg.Schedule.ReminderInterval = d
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("DATA_DIR", &cfg.DataDir)
	setString("DATABASE_FILE", &cfg.DatabaseFile)
	setString("PLANNER_TIMEZONE", &cfg.Timezone)
	setString("HTTP_ADDR", &cfg.HTTPAddr)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("HOME_LOCATION_NAME", &cfg.HomeLocationName)
	setString("HOME_LOCATION_ADDRESS", &cfg.HomeLocationAddress)
	setString("GOOGLE_MAPS_API_KEY", &cfg.GoogleMapsAPIKey)
	setString("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	setString("OPENAI_MODEL", &cfg.OpenAI.Model)
	setString("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	setString("TELEGRAM_TOKEN", &cfg.Telegram.Token)
	setString("AUTO_PLAN_TIME", &cfg.Schedule.AutoPlanTime)
	setString("GOOGLE_CALENDAR_CREDENTIALS", &cfg.Calendar.CredentialsFile)
	setString("GOOGLE_CALENDAR_TOKEN", &cfg.Calendar.TokenFile)
	setString("GOOGLE_CALENDAR_ID", &cfg.Calendar.CalendarID)

	for key, dst := range map[string]*int{
		"PLANNER_START_HOUR":    &cfg.PlannerStartHour,
		"PLANNER_END_HOUR":      &cfg.PlannerEndHour,
		"DEFAULT_BLOCK_MINUTES": &cfg.DefaultBlockMinutes,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	if err := setDuration("EXTERNAL_TIMEOUT", &cfg.ExternalTimeout); err != nil {
		return err
	}
	if err := setDuration("REMINDER_INTERVAL", &cfg.Schedule.ReminderInterval); err != nil {
		return err
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	if v := strings.TrimSpace(os.Getenv("DESKTOP_NOTIFICATIONS")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DESKTOP_NOTIFICATIONS: %w", err)
		}
		cfg.Schedule.DesktopNotifications = on
	}
	return nil
}

// Validate checks that the settings describe a usable planner.
func (c *Config) Validate() error {
	var problems []string

	if c.PlannerStartHour < 0 || c.PlannerStartHour > 23 {
		problems = append(problems, "planner start hour must be within 0-23")
	}
	if c.PlannerEndHour < 1 || c.PlannerEndHour > 24 {
		problems = append(problems, "planner end hour must be within 1-24")
	}
	if c.PlannerStartHour >= c.PlannerEndHour {
		problems = append(problems, "planner start hour must be before end hour")
	}
	if c.DefaultBlockMinutes < 15 || c.DefaultBlockMinutes > 240 {
		problems = append(problems, "default block minutes must be within 15-240")
	}
	if c.ExternalTimeout <= 0 {
		problems = append(problems, "external timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	if c.Schedule.AutoPlanTime != "" {
		if _, _, err := ParseClock(c.Schedule.AutoPlanTime); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// DatabaseDSN adds a busy timeout so concurrent writers wait instead of failing.
func (c *Config) DatabaseDSN() string {
	return c.DatabasePath() + "?_busy_timeout=5000"
}

// Location resolves the configured time zone, defaulting to the host's.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CalendarEnabled reports whether Google Calendar sync has credentials.
func (c *Config) CalendarEnabled() bool {
	return c.Calendar.CredentialsFile != ""
}

// CalendarTokenPath is where the OAuth token is kept, inside the data
// directory unless configured otherwise.
func (c *Config) CalendarTokenPath() string {
	if c.Calendar.TokenFile != "" {
		return c.Calendar.TokenFile
	}
	return filepath.Join(c.DataDir, "calendar-token.json")
}

// MapsEnabled reports whether a mapping provider credential is configured.
func (c *Config) MapsEnabled() bool {
	return c.GoogleMapsAPIKey != ""
}

// ParseClock parses an HH:MM string.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
