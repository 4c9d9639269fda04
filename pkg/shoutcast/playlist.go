package shoutcast

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// resolvePlaylistURL probes url and, when the response turns out to be a
// .pls or .m3u playlist rather than an ICY stream, returns the first stream
// URL the playlist lists. URLs that already answer with an icy-metaint
// header are returned unchanged.
func resolvePlaylistURL(url string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	client := &http.Client{
		Transport: &http.Transport{Dial: dialer.Dial},
		Timeout:   10 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("icy-metaint") != "" {
		return url, nil
	}

	// Only read a small prefix; a playlist is a handful of lines, anything
	// larger is most likely audio data.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	content := string(data)
	contentType := resp.Header.Get("Content-Type")

	switch {
	case isPLS(url, contentType, content):
		return firstPLSEntry(content)
	case isM3U(url, contentType, content):
		return firstM3UEntry(content)
	}

	return "", fmt.Errorf("URL does not appear to be a stream or playlist (Content-Type: %s)", contentType)
}

func isPLS(url, contentType, content string) bool {
	return strings.Contains(contentType, "audio/x-scpls") ||
		strings.Contains(contentType, "application/pls+xml") ||
		strings.HasSuffix(url, ".pls") ||
		strings.Contains(content, "[playlist]") ||
		strings.Contains(content, "File1=")
}

func isM3U(url, contentType, content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.Contains(contentType, "audio/mpegurl") ||
		strings.Contains(contentType, "application/vnd.apple.mpegurl") ||
		strings.HasSuffix(url, ".m3u") ||
		strings.HasSuffix(url, ".m3u8") ||
		strings.Contains(content, "#EXTM3U") ||
		strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://")
}

// firstPLSEntry returns the URL of the first FileN= entry.
func firstPLSEntry(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "File") {
			continue
		}
		if _, url, ok := strings.Cut(line, "="); ok && strings.TrimSpace(url) != "" {
			return strings.TrimSpace(url), nil
		}
	}
	return "", fmt.Errorf("no stream URL found in PLS playlist")
}

// firstM3UEntry returns the first non-comment URL line.
func firstM3UEntry(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	return "", fmt.Errorf("no stream URL found in M3U playlist")
}
