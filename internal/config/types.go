package config

import "time"

// Config is the whole configuration of a run. It is read once and treated
// as immutable, except for the category toggles set from flags.
//
// All durations are Go duration strings (e.g. "1500ms", "20s").
type Config struct {
	Run      RunConfig      `json:"run"`
	Telegram TelegramConfig `json:"telegram"`
	Portal   PortalConfig   `json:"portal"`

	// Locale selects message wording: "en" (default) or "fr".
	Locale string `json:"locale,omitempty" validate:"omitempty,oneof=en fr"`
	// Timezone is an IANA zone used for "today" and displayed times.
	// Empty means the host's local zone.
	Timezone string `json:"timezone,omitempty" validate:"omitempty,timezone"`

	NoLock  bool          `json:"no_lock,omitempty"`
	History HistoryConfig `json:"history"`
	Logging LoggingConfig `json:"logging"`

	// Schedule keeps the process running and repeats the run on each tick.
	// Accepts a cron expression, "@every 30m", a Go duration or "HH:MM".
	Schedule string `json:"schedule,omitempty"`

	// Home is the directory the configuration was loaded from.
	Home string `json:"-"`
}

// RunConfig toggles the categories of a run.
type RunConfig struct {
	Assignments bool `json:"assignments"`
	Timetable   bool `json:"timetable"`
	Grades      bool `json:"grades"`
	News        bool `json:"news"`
}

// Any reports whether at least one category is enabled.
func (r RunConfig) Any() bool { return r.Assignments || r.Timetable || r.Grades || r.News }

type TelegramConfig struct {
	Token  string `json:"token" validate:"required"`
	ChatID string `json:"chat_id" validate:"required"`
	// Throttling is the minimum delay between two Telegram calls.
	Throttling string `json:"throttling,omitempty"`
	// Timeout bounds a single HTTP attempt.
	Timeout  string `json:"timeout,omitempty"`
	RetryMax *int   `json:"retry_max,omitempty" validate:"omitempty,min=0,max=20"`
	APIURL   string `json:"api_url,omitempty" validate:"omitempty,url"`
}

type PortalConfig struct {
	// URL is the portal bridge service endpoint.
	URL     string `json:"url" validate:"required,url"`
	Timeout string `json:"timeout,omitempty"`
	// SchoolYearStart anchors week numbers (YYYY-MM-DD). Empty means
	// September 1st of the current school year.
	SchoolYearStart string `json:"school_year_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// HistoryConfig selects where dedup history is persisted.
//
// Example:
//
//	"history": { "driver": "sqlite", "path": "./history.db" }
type HistoryConfig struct {
	Driver      string `json:"driver,omitempty" validate:"omitempty,oneof=file sqlite"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error TRACE DEBUG INFO WARN WARNING ERROR"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Toggles are category switches from the command line. A true value
// enables the category; false leaves the file value untouched.
type Toggles struct {
	Assignments bool
	Timetable   bool
	Grades      bool
	News        bool
}

// ApplyToggles enables the categories set in t.
func (c *Config) ApplyToggles(t Toggles) {
	c.Run.Assignments = c.Run.Assignments || t.Assignments
	c.Run.Timetable = c.Run.Timetable || t.Timetable
	c.Run.Grades = c.Run.Grades || t.Grades
	c.Run.News = c.Run.News || t.News
}

// Location resolves Timezone. It is validated on load, so the error only
// surfaces for hand-built configs.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// YearStart parses Portal.SchoolYearStart in loc. Zero when unset.
func (c *Config) YearStart(loc *time.Location) (time.Time, error) {
	if c.Portal.SchoolYearStart == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", c.Portal.SchoolYearStart, loc)
}
