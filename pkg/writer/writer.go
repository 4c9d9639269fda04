// Package writer contains the artifact sinks driven by track change events:
// cue sheet, plain track list and Matroska chapter file. Sinks are
// independent of the audio path and of each other; a failing sink logs its
// first error, counts the rest and keeps the session running.
package writer

import (
	"errors"
	"log/slog"
	"os"

	"github.com/sniner/rp-recorder/pkg/track"
)

// Writer is one artifact sink. AddTrack must never propagate an error to the
// caller. Close finalizes the artifact and is idempotent. Remove deletes the
// artifact; the recording engine calls it when a session ends without having
// written a single audio byte.
type Writer interface {
	AddTrack(t track.Info)
	Close() error
	Remove() error
}

// artifact carries what every sink shares: the target path, a logger and a
// sticky failure counter so only the first write error is logged.
type artifact struct {
	path     string
	logger   *slog.Logger
	failures int
}

func (a *artifact) fail(err error) {
	if a.failures == 0 {
		a.logger.Error("writing artifact failed", "path", a.path, "err", err)
	}
	a.failures++
}

func (a *artifact) Remove() error {
	err := os.Remove(a.path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// appendString appends s to the artifact file, creating it on first use.
func (a *artifact) appendString(s string) {
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		a.fail(err)
		return
	}
	_, werr := f.WriteString(s)
	cerr := f.Close()
	if werr != nil {
		a.fail(werr)
	} else if cerr != nil {
		a.fail(cerr)
	}
}
