// Package codec centralizes chunk compression.
//
// The codec used to write a dataset is recorded by name in its manifest;
// readers resolve it via ByName. Changing a codec is therefore a
// breaking-change boundary for persisted chunks.
package codec

import "fmt"

// Compressor compresses and decompresses chunk payloads.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// Default is the codec used when a manifest does not name one.
var Default Compressor = None{}

// ByName returns a built-in compressor by its stable name.
func ByName(name string) (Compressor, bool) {
	switch name {
	case "", "none":
		return None{}, true
	case "zstd":
		return NewZstd(), true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// MustCompress is a helper for internal tests.
func MustCompress(c Compressor, data []byte) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Compress(data)
	if err != nil {
		panic(fmt.Errorf("codec %s compress failed: %w", c.Name(), err))
	}
	return b
}
