package checksum

import (
	"bytes"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Calculator is an interface for computing document digests.
type Calculator interface {
	// CalculateRaw computes a digest of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a digest of normalized content.
	CalculateNormalized(content []byte) string
}

// ShortLength is the number of hex digits Short keeps.
const ShortLength = 16

// domainKey separates document digests from any other BLAKE3 use of the
// same bytes. It is the ASCII domain name zero-padded to 32 bytes; changing
// it changes every digest.
var domainKey = [32]byte{
	'm', 'e', 't', 'a', 'f', 'm', 't', '.', 'd', 'o', 'c', 'u', 'm', 'e', 'n', 't',
}

// BLAKE3 implements Calculator with keyed BLAKE3-256.
// It normalizes by:
//  1. Converting CRLF and CR line endings to LF
//  2. Trimming trailing spaces and tabs from every line
//  3. Trimming trailing newlines from the content
type BLAKE3 struct{}

// New creates a new BLAKE3 based calculator.
func New() BLAKE3 {
	return BLAKE3{}
}

// CalculateRaw computes the digest of raw content.
func (c BLAKE3) CalculateRaw(content []byte) string {
	return sum(content)
}

// CalculateNormalized computes the digest of normalized content.
func (c BLAKE3) CalculateNormalized(content []byte) string {
	return sum(c.normalize(content))
}

func (c BLAKE3) normalize(content []byte) []byte {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	content = bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))

	lines := bytes.Split(content, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return bytes.TrimRight(bytes.Join(lines, []byte("\n")), "\n")
}

func sum(content []byte) string {
	// NewKeyed only fails for a key that is not 32 bytes long.
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("checksum: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Short abbreviates a digest for display.
func Short(digest string) string {
	if len(digest) <= ShortLength {
		return digest
	}
	return digest[:ShortLength]
}
