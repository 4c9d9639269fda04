package writer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sniner/rp-recorder/pkg/track"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCueTime(t *testing.T) {
	cases := []struct {
		pos  time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:01:00"},
		{500 * time.Millisecond, "00:00:37"}, // 37.5 frames truncated
		{13 * time.Millisecond, "00:00:00"},  // less than one frame
		{61 * time.Second, "01:01:00"},
		{60 * time.Minute, "60:00:00"}, // minutes do not wrap into hours
	}

	for _, tc := range cases {
		if got := cueTime(tc.pos); got != tc.want {
			t.Errorf("cueTime(%v) = %q, want %q", tc.pos, got, tc.want)
		}
	}
}

func TestCueSheetAddTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.cue")
	w := NewCueSheet(path, "Test Radio", "test.mp3", testLogger())

	w.AddTrack(track.Info{Filepos: 0, Timepos: 0, Name: "Led Zeppelin - Kashmir", Cover: "http://img.example.com/a.jpg"})
	w.AddTrack(track.Info{Filepos: 123456, Timepos: 251 * time.Second, Name: "Station Jingle"})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	want := strings.Join([]string{
		`PERFORMER "Test Radio"`,
		`FILE "test.mp3" WAVE`,
		"  TRACK 01 AUDIO",
		`    TITLE "Kashmir"`,
		`    PERFORMER "Led Zeppelin"`,
		"    INDEX 01 00:00:00",
		"    REM FILEPOS 0",
		`    REM COVER "http://img.example.com/a.jpg"`,
		"  TRACK 02 AUDIO",
		`    TITLE "Station Jingle"`,
		`    PERFORMER ""`,
		"    INDEX 01 04:11:00",
		"    REM FILEPOS 123456",
		`    REM COVER ""`,
		"",
	}, "\n")
	if got != want {
		t.Errorf("cue sheet mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestCueSheetWrapsAtTrack99(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.cue")
	w := NewCueSheet(path, "Test Radio", "long.mp3", testLogger())

	for i := 0; i < 100; i++ {
		w.AddTrack(track.Info{Timepos: time.Duration(i) * time.Minute, Name: fmt.Sprintf("Track %d", i+1)})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	if n := strings.Count(got, `PERFORMER "Test Radio"`); n != 2 {
		t.Errorf("expected header twice after wrapping, found %d", n)
	}
	if n := strings.Count(got, "  TRACK 01 AUDIO"); n != 2 {
		t.Errorf("expected TRACK 01 twice after wrapping, found %d", n)
	}
	if !strings.Contains(got, "  TRACK 99 AUDIO") {
		t.Error("expected a TRACK 99 entry")
	}
	if strings.Contains(got, "TRACK 100") {
		t.Error("track numbers must not exceed 99")
	}
	// The wrapped section is separated by a blank line.
	if !strings.Contains(got, "\n\nPERFORMER \"Test Radio\"") {
		t.Error("expected a blank line before the repeated header")
	}
}

func TestCueSheetWriteFailureIsContained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "sub", "test.cue")
	w := NewCueSheet(path, "Test Radio", "test.mp3", testLogger())

	// Must not panic or propagate, only count.
	w.AddTrack(track.Info{Name: "A - B"})
	w.AddTrack(track.Info{Name: "C - D"})
	if w.failures != 2 {
		t.Errorf("expected 2 recorded failures, got %d", w.failures)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	w := NewTrackList(path, testLogger())
	w.AddTrack(track.Info{Name: "x"})

	if err := w.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact still exists after Remove")
	}
	// Removing a missing artifact is not an error.
	if err := w.Remove(); err != nil {
		t.Fatal(err)
	}
}
