package checksum

import (
	"encoding/hex"
	"testing"

	"github.com/zeebo/blake3"
)

func TestBLAKE3Calculator_CalculateRaw(t *testing.T) {
	calc := New()

	tests := []struct {
		name    string
		content string
	}{
		{name: "Empty document", content: ""},
		{name: "JSON document", content: `{"meta":{"id":"1"}}`},
		{name: "XML document", content: "<?xml version=\"1.0\"?>\n<DocumentSet/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calc.CalculateRaw([]byte(tt.content))

			if len(result) != 64 {
				t.Errorf("CalculateRaw() returned digest of length %d, expected 64", len(result))
			}
			if _, err := hex.DecodeString(result); err != nil {
				t.Errorf("CalculateRaw() returned non-hex digest %q", result)
			}

			result2 := calc.CalculateRaw([]byte(tt.content))
			if result != result2 {
				t.Errorf("CalculateRaw() is not deterministic: %s != %s", result, result2)
			}
		})
	}
}

func TestBLAKE3Calculator_Keyed(t *testing.T) {
	content := []byte("<DocumentSet/>")
	unkeyed := blake3.Sum256(content)

	if New().CalculateRaw(content) == hex.EncodeToString(unkeyed[:]) {
		t.Error("CalculateRaw() should use the keyed domain, got the plain BLAKE3 digest")
	}
}

func TestBLAKE3Calculator_CalculateNormalized(t *testing.T) {
	calc := New()

	tests := []struct {
		name      string
		content1  string
		content2  string
		wantEqual bool
	}{
		{
			name:      "CRLF vs LF",
			content1:  "{\r\n  \"a\": 1\r\n}\r\n",
			content2:  "{\n  \"a\": 1\n}\n",
			wantEqual: true,
		},
		{
			name:      "Trailing whitespace",
			content1:  "<a>  \n</a>\t",
			content2:  "<a>\n</a>",
			wantEqual: true,
		},
		{
			name:      "Trailing newlines",
			content1:  "x\n\n\n",
			content2:  "x",
			wantEqual: true,
		},
		{
			name:      "Leading indentation is content",
			content1:  "  x",
			content2:  "x",
			wantEqual: false,
		},
		{
			name:      "Different values",
			content1:  `{"a": 1}`,
			content2:  `{"a": 2}`,
			wantEqual: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := calc.CalculateNormalized([]byte(tt.content1))
			h2 := calc.CalculateNormalized([]byte(tt.content2))

			if (h1 == h2) != tt.wantEqual {
				t.Errorf("CalculateNormalized() equal = %v, want %v", h1 == h2, tt.wantEqual)
			}
		})
	}
}

func TestShort(t *testing.T) {
	digest := New().CalculateRaw([]byte("doc"))
	if got := Short(digest); got != digest[:ShortLength] {
		t.Errorf("Short() = %q, want %q", got, digest[:ShortLength])
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(%q) = %q", "abc", got)
	}
}
