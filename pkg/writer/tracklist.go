package writer

import (
	"fmt"
	"log/slog"

	"github.com/sniner/rp-recorder/pkg/track"
)

// TrackList appends one plain-text line per track: "H:MM:SS -- <title>".
type TrackList struct {
	artifact
}

func NewTrackList(path string, logger *slog.Logger) *TrackList {
	return &TrackList{
		artifact: artifact{path: path, logger: logger.With("writer", "tracklist")},
	}
}

func (w *TrackList) AddTrack(t track.Info) {
	w.appendString(fmt.Sprintf("%s -- %s\n", t.TimeposString(), t.Name))
}

func (w *TrackList) Close() error { return nil }
