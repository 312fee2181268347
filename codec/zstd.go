package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses chunks with zstandard. Good ratio for cold remote
// datasets where transfer time dominates.
type Zstd struct {
	encPool *sync.Pool
	decPool *sync.Pool
}

// NewZstd creates a Zstd compressor with pooled encoders and decoders.
func NewZstd() *Zstd {
	return &Zstd{
		encPool: &sync.Pool{
			New: func() any {
				enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				return enc
			},
		},
		decPool: &sync.Pool{
			New: func() any {
				dec, _ := zstd.NewReader(nil)
				return dec
			},
		},
	}
}

// Compress returns the zstd frame for data.
func (z *Zstd) Compress(data []byte) ([]byte, error) {
	enc := z.encPool.Get().(*zstd.Encoder)
	defer z.encPool.Put(enc)
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress decodes a zstd frame.
func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	dec := z.decPool.Get().(*zstd.Decoder)
	defer z.decPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

// Name returns the stable codec name.
func (*Zstd) Name() string { return "zstd" }
