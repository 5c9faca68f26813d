// Package checksum computes the digest printed for every written document.
//
// Two digests are available:
//
//   - Raw digest: hash of the exact bytes written (detects any change)
//   - Normalized digest: hash after normalizing line endings and trailing
//     whitespace, so a document re-saved on another platform keeps its
//     identity
//
// Digests are BLAKE3 in keyed mode with a fixed domain key, hex encoded.
//
// # Example Usage
//
//	calculator := checksum.New()
//	digest := calculator.CalculateRaw(data)
//	fmt.Println(checksum.Short(digest))
//
// # Thread Safety
//
// BLAKE3 is safe for concurrent use by multiple goroutines.
package checksum
