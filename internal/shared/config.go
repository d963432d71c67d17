package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/tclive/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// localLayout is the wall-clock format used for event and reminder times; the zone comes from [EventConfig.Timezone].
const localLayout = "2006-01-02T15:04:05"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel      string              `toml:"log_level"`
	Event         EventConfig         `toml:"event"`
	YouTube       YouTubeConfig       `toml:"youtube"`
	OneSignal     OneSignalConfig     `toml:"onesignal"`
	Notifications NotificationsConfig `toml:"notifications"`
	Reminders     []ReminderConfig    `toml:"reminders"`
	Database      DatabaseConfig      `toml:"database"`
	Server        ServerConfig        `toml:"server"`
	Redis         RedisConfig         `toml:"redis"`
}

// EventConfig describes the sports meet itself.
type EventConfig struct {
	Name     string `toml:"name"`
	SiteName string `toml:"site_name"`
	SiteURL  string `toml:"site_url"`
	Icon     string `toml:"icon"`
	Timezone string `toml:"timezone"`
	Start    string `toml:"start"`
	Tag      string `toml:"tag"`
}

// YouTubeConfig contains YouTube Data API settings for the live-stream poller.
type YouTubeConfig struct {
	APIKey            string        `toml:"api_key"`
	ChannelID         string        `toml:"channel_id"`
	BaseURL           string        `toml:"base_url"`
	CheckInterval     time.Duration `toml:"check_interval"`
	Autoplay          bool          `toml:"autoplay"`
	MutedStart        bool          `toml:"muted_start"`
	FallbackVideoID   string        `toml:"fallback_video_id"`
	ReloadOnFirstLive bool          `toml:"reload_on_first_live"`
	ReloadSessionTTL  time.Duration `toml:"reload_session_ttl"`
	CheckRate         time.Duration `toml:"check_rate"`
}

// OneSignalConfig contains hosted push credentials.
type OneSignalConfig struct {
	AppID      string `toml:"app_id"`
	RESTAPIKey string `toml:"rest_api_key"`
	BaseURL    string `toml:"base_url"`

	// ExternalID identifies this install to OneSignal. Defaults to tclive-<hostname>.
	ExternalID string `toml:"external_id"`
}

// NotificationsConfig tunes the notification helper.
type NotificationsConfig struct {
	AutoPromptDelay time.Duration `toml:"auto_prompt_delay"`
	ToastDuration   time.Duration `toml:"toast_duration"`
	DesktopCommand  string        `toml:"desktop_command"`
}

// ReminderConfig is one fixed calendar reminder.
type ReminderConfig struct {
	At    string `toml:"at"`
	Title string `toml:"title"`
	Body  string `toml:"body"`
	Tag   string `toml:"tag"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// RedisConfig enables the optional event stream. An empty URL disables it.
type RedisConfig struct {
	URL    string `toml:"url"`
	Stream string `toml:"stream"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Reminders = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Reminders == nil {
		config.Reminders = DefaultConfig().Reminders
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Location resolves the event timezone, falling back to [time.Local] when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Event.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Event.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Event.Timezone, err)
	}
	return loc, nil
}

// EventStart parses the event start in the event timezone.
func (c *Config) EventStart() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	start, err := time.ParseInLocation(localLayout, c.Event.Start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: event start %q: %v", ErrInvalidConfig, c.Event.Start, err)
	}
	return start, nil
}

// ReminderSchedule converts the configured reminders to [models.Reminder] values in the event timezone.
//
// Reminders without a tag are tagged with their title, so repeated deliveries replace each other.
func (c *Config) ReminderSchedule() ([]models.Reminder, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	reminders := make([]models.Reminder, 0, len(c.Reminders))
	for i, rc := range c.Reminders {
		at, err := time.ParseInLocation(localLayout, rc.At, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: reminder %d time %q: %v", ErrInvalidConfig, i, rc.At, err)
		}
		tag := rc.Tag
		if tag == "" {
			tag = rc.Title
		}
		reminders = append(reminders, models.Reminder{At: at, Title: rc.Title, Body: rc.Body, Tag: tag})
	}

	return reminders, nil
}

// OneSignalExternalID returns the configured external ID or one derived from the hostname.
func (c *Config) OneSignalExternalID() string {
	if c.OneSignal.ExternalID != "" {
		return c.OneSignal.ExternalID
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "tclive-" + host
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks settings that would leave a feature unable to start.
func (c *Config) Validate() error {
	if c.YouTube.CheckInterval <= 0 {
		return fmt.Errorf("%w: youtube.check_interval must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.EventStart(); err != nil {
		return err
	}
	if _, err := c.ReminderSchedule(); err != nil {
		return err
	}
	return nil
}
