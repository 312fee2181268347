package traj

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/trajcache"
	"github.com/hupe1980/trajcache/chunkstore"
	"github.com/hupe1980/trajcache/codec"
)

// EncodeFrame appends the encoded form of ts to dst and returns the
// extended slice. The frame must match the manifest's atom count and
// dataset presence flags.
func EncodeFrame(m Manifest, ts Timestep, dst []byte) ([]byte, error) {
	n := m.NAtoms * 3
	checkVec := func(name string, v []float32, present bool) error {
		if present && len(v) != n {
			return fmt.Errorf("frame %d: %s has %d values, manifest expects %d", ts.Frame, name, len(v), n)
		}
		return nil
	}
	if err := checkVec("positions", ts.Positions, m.HasPositions); err != nil {
		return nil, err
	}
	if err := checkVec("velocities", ts.Velocities, m.HasVelocities); err != nil {
		return nil, err
	}
	if err := checkVec("forces", ts.Forces, m.HasForces); err != nil {
		return nil, err
	}

	dst = binary.LittleEndian.AppendUint64(dst, ts.Step)
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(ts.Time))
	if m.HasBox {
		for _, d := range ts.Dimensions {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(d))
		}
	}
	appendVec := func(v []float32, present bool) {
		if !present {
			return
		}
		for _, f := range v {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		}
	}
	appendVec(ts.Positions, m.HasPositions)
	appendVec(ts.Velocities, m.HasVelocities)
	appendVec(ts.Forces, m.HasForces)
	return dst, nil
}

// DatasetStore is the write side a dataset writer needs from a chunk
// store; the provided stores (memory, local, s3, minio) all implement it.
type DatasetStore interface {
	Put(ctx context.Context, key chunkstore.Key, data []byte) error
	PutManifest(ctx context.Context, data []byte) error
}

// WriteDataset encodes frames into chunks per the manifest's scheme and
// codec and writes chunks plus manifest to the store. Frames must be
// supplied in frame order and their count must match m.NFrames.
//
// This is the counterpart of Reader for producing datasets and test
// fixtures.
func WriteDataset(ctx context.Context, store DatasetStore, m Manifest, frames []Timestep) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if len(frames) != m.NFrames {
		return fmt.Errorf("got %d frames, manifest declares %d", len(frames), m.NFrames)
	}

	comp, ok := codec.ByName(m.Compression)
	if !ok {
		return fmt.Errorf("unknown compression codec %q", m.Compression)
	}
	scheme, ok := trajcache.SchemeByName(m.Scheme, m.FramesPerChunk)
	if !ok {
		return fmt.Errorf("unknown chunk scheme %q", m.Scheme)
	}

	// Group frames by chunk, preserving offset order within each chunk.
	chunks := make(map[chunkstore.Key][]byte)
	frameSize := m.FrameSize()
	for i, ts := range frames {
		if ts.Frame != i {
			return fmt.Errorf("frame %d out of order (index %d)", ts.Frame, i)
		}
		key := scheme.KeyFor(i)
		buf := chunks[key]
		if int64(len(buf)) != int64(scheme.FrameOffset(i))*frameSize {
			return fmt.Errorf("frame %d: chunk %d offset gap", i, key)
		}
		buf, err := EncodeFrame(m, ts, buf)
		if err != nil {
			return err
		}
		chunks[key] = buf
	}

	for key, buf := range chunks {
		data, err := comp.Compress(buf)
		if err != nil {
			return fmt.Errorf("chunk %d: compress: %w", key, err)
		}
		if err := store.Put(ctx, key, data); err != nil {
			return fmt.Errorf("chunk %d: put: %w", key, err)
		}
	}

	encoded, err := m.Marshal()
	if err != nil {
		return err
	}
	return store.PutManifest(ctx, encoded)
}
