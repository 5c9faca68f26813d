// Package encoding serializes a finished schema element tree. Every format
// writes the same content: each element's identity block, its fields in
// the order they were set, and its slots in the order they were filled.
package encoding

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Format names an output serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
	FormatHTML Format = "html"
)

// CompressedSuffix marks an output path whose contents are zstd-compressed.
const CompressedSuffix = ".zst"

type encodeFunc func(root *schema.Element) ([]byte, error)

var encoders = map[Format]encodeFunc{
	FormatJSON: encodeJSON,
	FormatXML:  encodeXML,
	FormatYAML: encodeYAML,
	FormatCBOR: encodeCBOR,
	FormatHTML: encodeHTML,
}

// Formats returns the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for f := range encoders {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "yml" {
		f = FormatYAML
	}
	if _, ok := encoders[f]; !ok {
		return "", fmt.Errorf("unknown output format %q (supported: %s): %w",
			name, strings.Join(Formats(), ", "), metafmt.ErrInvalidConfig)
	}
	return f, nil
}

// FormatForPath infers the format from an output path's extension, looking
// through a trailing .zst. It returns "" when the extension is not a format.
func FormatForPath(path string) Format {
	path = strings.TrimSuffix(path, CompressedSuffix)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := ParseFormat(ext)
	if err != nil || ext == "" {
		return ""
	}
	return f
}

// Encode serializes the tree rooted at root.
func Encode(root *schema.Element, f Format) ([]byte, error) {
	enc, ok := encoders[f]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q: %w", f, metafmt.ErrInvalidConfig)
	}
	data, err := enc(root)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return data, nil
}

// WriteFile writes data to path, compressing it with zstd when path ends in
// .zst. It returns the bytes actually written.
func WriteFile(path string, data []byte) ([]byte, error) {
	if strings.HasSuffix(path, CompressedSuffix) {
		var err error
		if data, err = compress(data); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return data, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress reverses the compression WriteFile applies.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
