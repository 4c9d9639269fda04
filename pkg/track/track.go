// Package track holds the immutable description of one detected track.
package track

import (
	"fmt"
	"regexp"
	"time"
)

var artistSep = regexp.MustCompile(`\s+-\s+`)

// Info describes one track detected in a recording. Filepos is the offset of
// the track's first audio byte in the recorded file (not in the network
// stream; the two diverge when the first partial track is skipped), Timepos
// the elapsed time since recording started. Values are set once by the
// recording engine and passed by value to every artifact writer.
type Info struct {
	Filepos int64
	Timepos time.Duration
	Name    string
	Cover   string
}

// ArtistTitle splits the display name on the first "artist - title"
// separator. When no separator is present the whole name is the title and
// the artist is empty.
func (i Info) ArtistTitle() (artist, title string) {
	if loc := artistSep.FindStringIndex(i.Name); loc != nil {
		return i.Name[:loc[0]], i.Name[loc[1]:]
	}
	return "", i.Name
}

// TimeposString renders the track position as "H:MM:SS", with no padding on
// the hours.
func (i Info) TimeposString() string {
	secs := int(i.Timepos / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
