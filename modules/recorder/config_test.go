package recorder

import (
	"testing"
	"time"

	yaml "gopkg.in/yaml.v2"
)

func TestParseEndTime(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2024-03-16 22:30", time.Date(2024, 3, 16, 22, 30, 0, 0, time.Local), false},
		{"2024-03-16 22:30:15", time.Date(2024, 3, 16, 22, 30, 15, 0, time.Local), false},
		{"2024-03-16T22:30", time.Date(2024, 3, 16, 22, 30, 0, 0, time.Local), false},
		{"22:30", time.Date(2024, 3, 15, 22, 30, 0, 0, time.Local), false},
		{"22:30:45", time.Date(2024, 3, 15, 22, 30, 45, 0, time.Local), false},
		{"  22:30  ", time.Date(2024, 3, 15, 22, 30, 0, 0, time.Local), false},
		{"not a time", time.Time{}, true},
		{"25:99", time.Time{}, true},
	}

	for _, tc := range cases {
		got, err := ParseEndTime(tc.in, now)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseEndTime(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEndTime(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseEndTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCutModeSet(t *testing.T) {
	var m CutMode
	if err := m.Set("on-track"); err != nil {
		t.Fatal(err)
	}
	if m != CutOnTrack {
		t.Errorf("got %q", m)
	}
	if err := m.Set("sometime"); err == nil {
		t.Error("expected error for invalid cut mode")
	}
}

func TestCutModeYAML(t *testing.T) {
	var cfg Config
	cfg.StartMode = CutImmediate

	if err := yaml.Unmarshal([]byte("start-mode: on-track\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.StartMode != CutOnTrack {
		t.Errorf("got start mode %q", cfg.StartMode)
	}

	// An empty value keeps the default.
	cfg.StopMode = CutOnTrack
	if err := yaml.Unmarshal([]byte("stop-mode: \"\"\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.StopMode != CutOnTrack {
		t.Errorf("empty value overwrote the default: %q", cfg.StopMode)
	}

	if err := yaml.Unmarshal([]byte("stop-mode: whenever\n"), &cfg); err == nil {
		t.Error("expected error for invalid cut mode in yaml")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Radio Paradise (Main Mix)", "Radio_Paradise_(Main_Mix)"},
		{"rock/metal & more", "rock_metal_more"},
		{"already-safe_1.0[x]", "already-safe_1.0[x]"},
		{"a   b", "a_b"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfigStreams(t *testing.T) {
	cfg := Config{
		Streams: []StreamConfig{{Name: "Main", URL: "http://radio.example.com/main", Type: "mp3"}},
		URL:     "http://radio.example.com/extra",
	}

	streams := cfg.streams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}
	if streams[1].Name != "stream" {
		t.Errorf("expected a default name for the shorthand stream, got %q", streams[1].Name)
	}

	cfg = Config{}
	if got := cfg.streams(); len(got) != 0 {
		t.Errorf("expected no streams, got %v", got)
	}
}
