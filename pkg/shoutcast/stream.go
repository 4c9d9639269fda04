package shoutcast

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const userAgent = "iTunes/12.9.2 (Macintosh; OS X 10.14.3) AppleWebKit/606.4.5"

// StreamChunk is one framed slice of an ICY stream: the audio bytes between
// two metadata positions, tagged with the elapsed time since the read loop
// began. Metadata is empty when the frame carried no metadata block, when the
// block was unparseable, or when its payload was identical to the previous
// one. Audio always holds exactly the negotiated metaint bytes.
type StreamChunk struct {
	Elapsed  time.Duration
	Audio    []byte
	Metadata map[string]string
}

// Stream represents an open shoutcast stream, framed into StreamChunks.
type Stream struct {
	// The name of the server
	Name string

	// What category the server falls under
	Genre string

	// The description of the stream
	Description string

	// Homepage of the server
	URL string

	// Bitrate of the server
	Bitrate int

	logger *slog.Logger

	// Amount of audio bytes between two metadata blocks
	metaint int

	// Raw payload of the last non-empty metadata block, for deduplication
	lastMeta string

	// When the read loop began; the zero value until the first ReadChunk
	started time.Time

	// The underlying data stream
	rc io.ReadCloser

	stopOnce sync.Once
	stopped  atomic.Bool
}

// Open establishes a connection to a remote server and negotiates inline
// metadata. It automatically handles playlist files (.pls, .m3u) and resolves
// them to stream URLs. Opening fails on a non-success HTTP status and on
// streams that do not advertise a positive icy-metaint, since without the
// metadata interval the stream cannot be framed.
func Open(url string, logger *slog.Logger) (*Stream, error) {
	logger.Info("opening stream", "url", url)

	resolvedURL, err := resolvePlaylistURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist URL: %w", err)
	}
	if resolvedURL != url {
		logger.Info("resolved playlist to stream URL", "url", resolvedURL)
		url = resolvedURL
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)
	req.Header.Add("icy-metadata", "1")

	// Timeout for establishing the connection.
	// We don't want for the stream to timeout while we're reading it, but
	// we do want a timeout for establishing the connection to the server.
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		Dial:                  dialer.Dial,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	// No timeout on the client - we want to stream indefinitely
	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	for k, v := range resp.Header {
		logger.Debug("http header", "name", k, "value", v[0])
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %q from %s", resp.Status, url)
	}

	metaint, err := strconv.Atoi(resp.Header.Get("icy-metaint"))
	if err != nil || metaint <= 0 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream has no usable metadata interval (icy-metaint=%q)", resp.Header.Get("icy-metaint"))
	}

	var bitrate int
	if rawBitrate := resp.Header.Get("icy-br"); rawBitrate != "" {
		// Best effort; some servers send garbage here.
		bitrate, _ = strconv.Atoi(rawBitrate)
	}

	s := &Stream{
		Name:        resp.Header.Get("icy-name"),
		Genre:       resp.Header.Get("icy-genre"),
		Description: resp.Header.Get("icy-description"),
		URL:         resp.Header.Get("icy-url"),
		Bitrate:     bitrate,
		logger:      logger,
		metaint:     metaint,
		rc:          resp.Body,
	}

	return s, nil
}

// ReadChunk blocks until one full frame has been read: metaint audio bytes,
// the metadata length byte, and the metadata block when present. It returns
// io.EOF when the connection closes, a read falls short, or Stop was called;
// after that every call returns io.EOF. The chunk's Elapsed field is taken
// from a monotonic clock started at the first ReadChunk call, so a slow
// connection setup does not skew track timestamps.
func (s *Stream) ReadChunk() (*StreamChunk, error) {
	if s.stopped.Load() {
		return nil, io.EOF
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	elapsed := time.Since(s.started)

	audio := make([]byte, s.metaint)
	if err := s.readFull(audio); err != nil {
		return nil, io.EOF
	}

	var lenByte [1]byte
	if err := s.readFull(lenByte[:]); err != nil {
		return nil, io.EOF
	}

	meta := map[string]string{}
	if blockLen := int(lenByte[0]) * 16; blockLen > 0 {
		block := make([]byte, blockLen)
		if err := s.readFull(block); err != nil {
			return nil, io.EOF
		}
		// Some servers repeat the current metadata on every interval; only a
		// changed payload counts as a metadata event.
		if raw := string(bytes.TrimRight(block, "\x00")); raw != "" && raw != s.lastMeta {
			s.lastMeta = raw
			meta = ParseMetadata(block)
		}
	}

	return &StreamChunk{Elapsed: elapsed, Audio: audio, Metadata: meta}, nil
}

func (s *Stream) readFull(buf []byte) error {
	if _, err := io.ReadFull(s.rc, buf); err != nil {
		if !s.stopped.Load() && err != io.EOF {
			s.logger.Debug("stream read ended", "err", err)
		}
		return err
	}
	return nil
}

// Stop aborts the stream. It is idempotent, safe to call from any goroutine
// (including a signal handler), and unblocks an in-flight ReadChunk by
// closing the underlying connection.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		if s.rc != nil {
			_ = s.rc.Close()
		}
	})
}
