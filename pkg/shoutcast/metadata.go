package shoutcast

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Example block, as sent on the wire (NUL-padded to a multiple of 16 bytes):
//
//	StreamTitle='Led Zeppelin - Kashmir';StreamUrl='http://img.example.com/covers/l/B000002JSN.jpg';\x00...
var (
	metaSingleQuoted = regexp.MustCompile(`(\w+)='([^']*)'`)
	metaDoubleQuoted = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// ParseMetadata extracts all key='value' pairs from a raw ICY metadata block
// and returns them keyed by the lower-cased key name. Some servers quote
// values with double quotes instead; those are only considered when no
// single-quoted pair is present. Trailing NUL padding is stripped and bytes
// that are not valid UTF-8 are decoded as Latin-1. Content that matches
// neither grammar is ignored, so a malformed block degrades to an empty map
// rather than an error.
func ParseMetadata(block []byte) map[string]string {
	raw := bytes.TrimRight(block, "\x00")
	var s string
	if utf8.Valid(raw) {
		s = string(raw)
	} else {
		s = decodeLatin1(raw)
	}

	pairs := metaSingleQuoted.FindAllStringSubmatch(s, -1)
	if pairs == nil {
		pairs = metaDoubleQuoted.FindAllStringSubmatch(s, -1)
	}

	meta := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		meta[strings.ToLower(kv[1])] = strings.TrimSpace(kv[2])
	}
	return meta
}

func decodeLatin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
