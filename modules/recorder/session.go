package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sniner/rp-recorder/pkg/shoutcast"
	"github.com/sniner/rp-recorder/pkg/track"
	"github.com/sniner/rp-recorder/pkg/writer"
)

// chunkSource is the part of shoutcast.Stream the session loop consumes.
type chunkSource interface {
	ReadChunk() (*shoutcast.StreamChunk, error)
	Stop()
}

var (
	unsafeChars    = regexp.MustCompile(`[^\w.()\[\]-]`)
	underscoreRuns = regexp.MustCompile(`__+`)
)

// SanitizeName maps a stream display name to a filesystem-safe token:
// anything outside [A-Za-z0-9_.()[]-] becomes an underscore and runs of
// underscores collapse.
func SanitizeName(name string) string {
	return underscoreRuns.ReplaceAllString(unsafeChars.ReplaceAllString(name, "_"), "_")
}

// session records one stream once: a single connection, a single audio file
// and one set of artifact writers. Sessions are not reused; the recorder
// module starts a fresh session per (re)connection attempt. No state is
// shared between sessions, so concurrent streams need no coordination.
type session struct {
	cfg     *Config
	stream  StreamConfig
	endTime time.Time
	logger  *slog.Logger
	metrics *metrics

	now func() time.Time

	// Bytes written to the audio file; 0 after Run means the session
	// captured nothing and left no artifacts behind.
	written int64
}

func newSession(cfg *Config, stream StreamConfig, endTime time.Time, logger *slog.Logger, m *metrics) *session {
	return &session{
		cfg:     cfg,
		stream:  stream,
		endTime: endTime,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Run opens the stream and records it until the stream ends, the end time
// policy fires, or ctx is canceled. Only the initial connection can fail;
// everything after that is handled inside the session.
func (s *session) Run(ctx context.Context) error {
	source, err := shoutcast.Open(s.stream.URL, s.logger)
	if err != nil {
		return errors.Wrap(err, "opening stream")
	}
	defer source.Stop()

	// Stop is the single cancellation primitive: it unblocks the read loop
	// by closing the connection.
	unregister := context.AfterFunc(ctx, source.Stop)
	defer unregister()

	return s.record(source)
}

func (s *session) audioFileName(started time.Time) string {
	ext := s.stream.Type
	if ext == "" {
		ext = "dat"
	}
	return fmt.Sprintf("%s_%s.%s", SanitizeName(s.stream.Name), started.Format("20060102-150405"), ext)
}

func (s *session) newWriters(audioPath, audioName string) []writer.Writer {
	var ws []writer.Writer
	if s.stream.Cuesheet || s.cfg.Cuesheet {
		ws = append(ws, writer.NewCueSheet(replaceExt(audioPath, ".cue"), s.stream.Name, audioName, s.logger))
	}
	if s.stream.Tracklist || s.cfg.Tracklist {
		ws = append(ws, writer.NewTrackList(replaceExt(audioPath, ".txt"), s.logger))
	}
	if s.cfg.Chapters {
		ws = append(ws, writer.NewChapters(replaceExt(audioPath, ".xml"), s.stream.Name, s.logger))
	}
	return ws
}

// record drives the cut-mode state machine over the chunk sequence. With
// start mode on-track the first metadata event marks a partial track, which
// is skipped; recording begins at the second event with the byte and time
// baselines reset to that moment. With stop mode on-track a passed end time
// only requests the stop and the next metadata event performs the cut.
func (s *session) record(source chunkSource) error {
	started := s.now()

	fname := s.audioFileName(started)
	audioPath := filepath.Join(s.cfg.Dir, fname)

	target, err := os.Create(audioPath)
	if err != nil {
		return errors.Wrap(err, "creating audio file")
	}

	writers := s.newWriters(audioPath, fname)
	dispatch := newDispatcher(writers)

	recording := s.cfg.StartMode == CutImmediate
	stopRequested := false
	trackNo := 0
	var recordStart time.Duration
	var filepos int64

	for {
		chunk, err := source.ReadChunk()
		if err != nil {
			// End of stream or aborted read, either way the sequence is over.
			break
		}

		if !s.endTime.IsZero() && !started.Add(chunk.Elapsed).Before(s.endTime) {
			if s.cfg.StopMode == CutImmediate || filepos == 0 {
				break
			}
			if !stopRequested {
				s.logger.Info("end time passed, stopping at track end")
				stopRequested = true
			}
		}

		if len(chunk.Metadata) > 0 {
			trackNo++
			if stopRequested {
				// The boundary we were waiting for.
				break
			}
			if !recording && trackNo > 1 {
				// Skipped the first (partial) track, recording starts here.
				recording = true
				recordStart = chunk.Elapsed
			}
			title := chunk.Metadata["streamtitle"]
			if recording {
				t := track.Info{
					Filepos: filepos,
					Timepos: chunk.Elapsed - recordStart,
					Name:    title,
					Cover:   chunk.Metadata["streamurl"],
				}
				s.logger.Info("recording", "track", t.Name, "at", t.TimeposString())
				s.metrics.tracks.WithLabelValues(s.stream.Name).Inc()
				dispatch.add(t)
			} else {
				s.logger.Info("skipping", "track", title)
			}
		}

		if recording {
			n, werr := target.Write(chunk.Audio)
			filepos += int64(n)
			s.metrics.audioBytes.WithLabelValues(s.stream.Name).Add(float64(n))
			if werr != nil {
				s.logger.Error("writing audio failed", "err", werr)
				break
			}
		}
	}

	source.Stop()

	// The dispatch worker must drain before the writers finalize, so no
	// artifact write is lost or reordered against teardown.
	dispatch.close()

	for _, w := range writers {
		if err := w.Close(); err != nil {
			s.logger.Error("closing artifact writer failed", "err", err)
		}
	}
	if err := target.Close(); err != nil {
		s.logger.Error("closing audio file failed", "err", err)
	}

	if filepos == 0 {
		// Nothing captured: a partial set of empty artifacts helps nobody.
		if err := os.Remove(audioPath); err != nil {
			s.logger.Error("removing empty audio file failed", "err", err)
		}
		for _, w := range writers {
			if err := w.Remove(); err != nil {
				s.logger.Error("removing artifact failed", "err", err)
			}
		}
	}

	s.written = filepos
	return nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
