package writer

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sniner/rp-recorder/pkg/track"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Chapters writes a Matroska chapter XML document, one ChapterAtom per track
// with a strictly increasing ChapterUID. The envelope is opened lazily and
// finalized by Close; a session without any track still produces a
// structurally valid, empty document. The UIDs are counted up locally so
// they stay stable across runs (mkvmerge could generate its own).
type Chapters struct {
	artifact
	edition string
	f       *os.File
	uid     int
	closed  bool
}

func NewChapters(path, editionName string, logger *slog.Logger) *Chapters {
	return &Chapters{
		artifact: artifact{path: path, logger: logger.With("writer", "chapters")},
		edition:  editionName,
		uid:      1,
	}
}

// chapterTime renders a position as HH:MM:SS.nnnnnnnnn with nanosecond
// precision.
func chapterTime(pos time.Duration) string {
	ns := pos.Nanoseconds()
	const hour, minute, second = int64(time.Hour), int64(time.Minute), int64(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d.%09d", ns/hour, ns%hour/minute, ns%minute/second, ns%second)
}

func (w *Chapters) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(w.f, format, args...); err != nil {
		w.fail(err)
	}
}

func (w *Chapters) create() error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	w.f = f
	w.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	w.printf("<Chapters>\n")
	w.printf("  <EditionEntry>\n")
	if w.edition != "" {
		w.printf("    <EditionDisplay>\n")
		w.printf("      <EditionString>%s</EditionString>\n", xmlEscaper.Replace(w.edition))
		w.printf("    </EditionDisplay>\n")
	}
	return nil
}

func (w *Chapters) open() bool {
	if w.f != nil {
		return true
	}
	if err := w.create(); err != nil {
		w.fail(err)
		return false
	}
	return true
}

func (w *Chapters) AddTrack(t track.Info) {
	if w.closed || !w.open() {
		return
	}

	artist, title := t.ArtistTitle()
	display := title
	if artist != "" {
		display = artist + " — " + title
	}
	display = xmlEscaper.Replace(strings.TrimSpace(display))

	uid := w.uid
	w.uid++

	w.printf("    <ChapterAtom>\n")
	w.printf("      <ChapterUID>%d</ChapterUID>\n", uid)
	w.printf("      <ChapterTimeStart>%s</ChapterTimeStart>\n", chapterTime(t.Timepos))
	w.printf("      <ChapterDisplay>\n")
	w.printf("        <ChapterString>%s</ChapterString>\n", display)
	w.printf("      </ChapterDisplay>\n")
	w.printf("    </ChapterAtom>\n")
}

func (w *Chapters) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.f == nil {
		if err := w.create(); err != nil {
			return err
		}
	}
	w.printf("  </EditionEntry>\n")
	w.printf("</Chapters>\n")
	err := w.f.Close()
	w.f = nil
	return err
}
