package shoutcast

import (
	"bytes"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	cases := []struct {
		name  string
		block []byte
		want  map[string]string
	}{
		{
			name:  "typical block",
			block: []byte("StreamTitle='Led Zeppelin - Kashmir';StreamUrl='http://img.example.com/covers/l/B000002JSN.jpg';\x00\x00\x00"),
			want: map[string]string{
				"streamtitle": "Led Zeppelin - Kashmir",
				"streamurl":   "http://img.example.com/covers/l/B000002JSN.jpg",
			},
		},
		{
			name:  "value containing equals sign",
			block: []byte("StreamTitle='A=B';"),
			want:  map[string]string{"streamtitle": "A=B"},
		},
		{
			name:  "double quoted fallback",
			block: []byte(`StreamTitle="Morcheeba - The Sea";`),
			want:  map[string]string{"streamtitle": "Morcheeba - The Sea"},
		},
		{
			name:  "single quotes win over double quotes",
			block: []byte(`StreamTitle='one';Other="two";`),
			want:  map[string]string{"streamtitle": "one"},
		},
		{
			name:  "keys are folded to lower case",
			block: []byte("STREAMTITLE='x';"),
			want:  map[string]string{"streamtitle": "x"},
		},
		{
			name:  "only null padding",
			block: bytes.Repeat([]byte{0}, 32),
			want:  map[string]string{},
		},
		{
			name:  "empty block",
			block: nil,
			want:  map[string]string{},
		},
		{
			name:  "unparseable content",
			block: []byte("no pairs here\x00\x00"),
			want:  map[string]string{},
		},
		{
			name:  "invalid utf8 decodes as latin1",
			block: []byte("StreamTitle='Caf\xe9';\x00"),
			want:  map[string]string{"streamtitle": "Café"},
		},
		{
			name:  "empty value",
			block: []byte("StreamUrl='';"),
			want:  map[string]string{"streamurl": ""},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseMetadata(tc.block)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d pairs %v, want %d pairs %v", len(got), got, len(tc.want), tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("key %q: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
