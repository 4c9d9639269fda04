package writer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sniner/rp-recorder/pkg/track"
)

// CueSheet writes a CD-style cue sheet indexing track start positions within
// the recorded audio file. The cue format caps track numbers at 99; past
// that the numbering wraps back to 1 and a fresh header is emitted after a
// blank line.
type CueSheet struct {
	artifact
	performer string
	filename  string
	trackNo   int
}

func NewCueSheet(path, performer, audioFilename string, logger *slog.Logger) *CueSheet {
	return &CueSheet{
		artifact:  artifact{path: path, logger: logger.With("writer", "cuesheet")},
		performer: performer,
		filename:  audioFilename,
		trackNo:   1,
	}
}

// cueTime renders a position as mm:ss:ff in CD frames, 75 per second,
// truncated to whole frames.
func cueTime(pos time.Duration) string {
	frames := pos.Nanoseconds() * 75 / int64(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", frames/(75*60), frames/75%60, frames%75)
}

func (w *CueSheet) header() string {
	return fmt.Sprintf("PERFORMER \"%s\"\nFILE \"%s\" WAVE", w.performer, w.filename)
}

func (w *CueSheet) entry(t track.Info) string {
	prefix := ""
	if w.trackNo > 99 {
		w.trackNo = 1
		prefix = "\n"
	}
	artist, title := t.ArtistTitle()
	item := strings.Join([]string{
		fmt.Sprintf("  TRACK %02d AUDIO", w.trackNo),
		fmt.Sprintf("    TITLE \"%s\"", title),
		fmt.Sprintf("    PERFORMER \"%s\"", artist),
		fmt.Sprintf("    INDEX 01 %s", cueTime(t.Timepos)),
		fmt.Sprintf("    REM FILEPOS %d", t.Filepos),
		fmt.Sprintf("    REM COVER \"%s\"", t.Cover),
	}, "\n")
	if w.trackNo == 1 {
		item = prefix + w.header() + "\n" + item
	}
	w.trackNo++
	return item
}

func (w *CueSheet) AddTrack(t track.Info) {
	w.appendString(w.entry(t) + "\n")
}

func (w *CueSheet) Close() error { return nil }
