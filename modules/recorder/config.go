package recorder

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultReconnectInitial = 5 * time.Second
	defaultReconnectMax     = 60 * time.Second
)

// CutMode selects whether recording starts/stops at the configured instant
// or at the next detected track boundary.
type CutMode string

const (
	CutImmediate CutMode = "immediate"
	CutOnTrack   CutMode = "on-track"
)

func (m CutMode) String() string { return string(m) }

// Set implements flag.Value.
func (m *CutMode) Set(s string) error {
	switch CutMode(s) {
	case CutImmediate, CutOnTrack:
		*m = CutMode(s)
		return nil
	}
	return fmt.Errorf("invalid cut mode %q, expected %q or %q", s, CutImmediate, CutOnTrack)
}

// UnmarshalYAML implements yaml.Unmarshaler; an empty value keeps the mode
// already applied by the flag defaults.
func (m *CutMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	return m.Set(s)
}

// StreamConfig describes one stream to record. Name is used for artifact
// headers and log correlation and, sanitized, as the base of the output file
// name. Type is the declared content type, used only as the output file
// extension. Cuesheet and Tracklist enable the per-stream artifacts in
// addition to the recording-level defaults.
type StreamConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Type      string `yaml:"type,omitempty"`
	Cuesheet  bool   `yaml:"cuesheet,omitempty"`
	Tracklist bool   `yaml:"tracklist,omitempty"`
}

type Config struct {
	Streams []StreamConfig `yaml:"streams,omitempty"`

	// Single-stream shorthand, mostly for the command line; merged into
	// Streams when set.
	URL  string `yaml:"url,omitempty"`
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type,omitempty"`

	Dir       string  `yaml:"dir,omitempty"`
	EndTime   string  `yaml:"end-time,omitempty"`
	StartMode CutMode `yaml:"start-mode,omitempty"`
	StopMode  CutMode `yaml:"stop-mode,omitempty"`

	Cuesheet  bool `yaml:"cuesheet,omitempty"`
	Tracklist bool `yaml:"tracklist,omitempty"`
	Chapters  bool `yaml:"chapters,omitempty"`

	ReconnectBackoff    time.Duration `yaml:"reconnect-backoff,omitempty"`     // initial delay before reconnecting after disconnect
	ReconnectBackoffMax time.Duration `yaml:"reconnect-backoff-max,omitempty"` // cap on reconnect delay (exponential backoff)
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.StartMode = CutImmediate
	cfg.StopMode = CutImmediate

	f.StringVar(&cfg.URL, util.PrefixConfig(prefix, "url"), "", "URL of a single stream to record (alternative to the streams list in the config file)")
	f.StringVar(&cfg.Name, util.PrefixConfig(prefix, "name"), "", "Display name of the single stream, used for artifact headers and file naming")
	f.StringVar(&cfg.Type, util.PrefixConfig(prefix, "type"), "", "Content type of the single stream, used as output file extension (default dat)")
	f.StringVar(&cfg.Dir, util.PrefixConfig(prefix, "dir"), "", "The directory to save recordings")
	f.StringVar(&cfg.EndTime, util.PrefixConfig(prefix, "end-time"), "", "Stop recording at this time, format [YYYY-MM-DD] HH:MM[:SS]; empty records until interrupted")
	f.Var(&cfg.StartMode, util.PrefixConfig(prefix, "start-mode"), "When to start recording: immediate, or on-track to skip the partial first track")
	f.Var(&cfg.StopMode, util.PrefixConfig(prefix, "stop-mode"), "When to stop once the end time has passed: immediate, or on-track to finish the running track")
	f.BoolVar(&cfg.Cuesheet, util.PrefixConfig(prefix, "cuesheet"), false, "Write a cue sheet next to each recording")
	f.BoolVar(&cfg.Tracklist, util.PrefixConfig(prefix, "tracklist"), true, "Write a plain track list next to each recording")
	f.BoolVar(&cfg.Chapters, util.PrefixConfig(prefix, "chapters"), true, "Write a Matroska chapter file next to each recording")
	f.DurationVar(&cfg.ReconnectBackoff, util.PrefixConfig(prefix, "reconnect-backoff"), defaultReconnectInitial,
		"Initial delay before reconnecting after stream disconnect. Exponential backoff is used up to reconnect-backoff-max.")
	f.DurationVar(&cfg.ReconnectBackoffMax, util.PrefixConfig(prefix, "reconnect-backoff-max"), defaultReconnectMax,
		"Maximum delay between reconnection attempts.")
}

// streams returns the configured stream list with the single-stream
// shorthand folded in.
func (cfg *Config) streams() []StreamConfig {
	streams := cfg.Streams
	if cfg.URL != "" {
		name := cfg.Name
		if name == "" {
			name = "stream"
		}
		streams = append(streams, StreamConfig{Name: name, URL: cfg.URL, Type: cfg.Type})
	}
	return streams
}

// endTimeLayouts in order of preference; time-only values resolve against
// the current day.
var (
	endTimeDateLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	endTimeClockLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

// ParseEndTime parses an absolute recording end time in the form
// "[YYYY-MM-DD] HH:MM[:SS]". The empty string means no end time and yields
// the zero time.
func ParseEndTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range endTimeDateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	for _, layout := range endTimeClockLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid end time %q, expected [YYYY-MM-DD] HH:MM[:SS]", s)
}
