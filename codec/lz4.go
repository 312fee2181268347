package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses chunks with LZ4 block compression. Fast decode path for
// hot local datasets.
//
// The uncompressed size is prepended as a little-endian uint32 so
// Decompress can size its output buffer exactly.
type LZ4 struct{}

// Compress returns the LZ4 block for data, prefixed with its
// uncompressed size.
func (LZ4) Compress(data []byte) ([]byte, error) {
	buf := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))

	n, err := lz4.CompressBlock(data, buf[4:], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input is stored raw; n == 0 flags that.
		buf = append(buf[:4], data...)
		binary.LittleEndian.PutUint32(buf, uint32(len(data))|rawFlag)
		return buf, nil
	}
	return buf[:4+n], nil
}

// Decompress decodes an LZ4 block written by Compress.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4: truncated block header (%d bytes)", len(data))
	}
	size := binary.LittleEndian.Uint32(data)
	if size&rawFlag != 0 {
		out := make([]byte, size&^rawFlag)
		copy(out, data[4:])
		return out, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// Name returns the stable codec name.
func (LZ4) Name() string { return "lz4" }

const rawFlag = 1 << 31
