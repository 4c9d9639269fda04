// Package shoutcast frames an ICY/Shoutcast stream into audio/metadata chunks.
//
// It is derived from github.com/romantomjak/shoutcast, reworked for stream
// recording:
//   - Playlist resolution: .pls and .m3u URLs are resolved to the actual stream URL
//   - Pull-based framing: ReadChunk yields the audio bytes between two metadata
//     positions together with the parsed metadata block, instead of hiding
//     metadata behind an io.Reader
//   - Metadata deduplication: repeated identical payloads are reported once
//   - No client timeout on the stream so long-running recording is supported
package shoutcast
