package codec

// None is a passthrough compressor for uncompressed datasets.
type None struct{}

// Compress returns data unchanged.
func (None) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns the stable codec name.
func (None) Name() string { return "none" }
