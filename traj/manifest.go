package traj

import (
	"encoding/json"
	"fmt"
)

// Manifest describes a chunked trajectory dataset. It is stored alongside
// the chunks (see chunkstore.ManifestStore) and is self-describing: the
// codec and chunk scheme used at write time are recorded by name.
type Manifest struct {
	// NFrames is the number of frames in the trajectory.
	NFrames int `json:"n_frames"`
	// NAtoms is the number of atoms per frame. Variable topology is not
	// supported.
	NAtoms int `json:"n_atoms"`
	// FramesPerChunk is the chunking stride.
	FramesPerChunk int `json:"frames_per_chunk"`

	// HasPositions, HasVelocities and HasForces record which per-atom
	// datasets each frame carries. At least one must be present.
	HasPositions  bool `json:"has_positions"`
	HasVelocities bool `json:"has_velocities"`
	HasForces     bool `json:"has_forces"`

	// HasBox records whether frames carry box edge vectors.
	HasBox bool `json:"has_box"`

	// Compression names the codec chunks were written with ("none",
	// "zstd", "lz4").
	Compression string `json:"compression,omitempty"`

	// Scheme names the frame-to-chunk mapping ("blocked", "interleaved").
	Scheme string `json:"scheme,omitempty"`
}

// Validate checks the manifest describes a readable dataset.
func (m Manifest) Validate() error {
	if m.NFrames < 0 {
		return fmt.Errorf("negative frame count %d", m.NFrames)
	}
	if m.NAtoms <= 0 {
		return fmt.Errorf("atom count must be positive, got %d", m.NAtoms)
	}
	if m.FramesPerChunk <= 0 {
		return fmt.Errorf("frames per chunk must be positive, got %d", m.FramesPerChunk)
	}
	if !m.HasPositions && !m.HasVelocities && !m.HasForces {
		return fmt.Errorf("dataset must carry at least a position, velocity or force group")
	}
	return nil
}

// FrameSize returns the size in bytes of one encoded frame.
func (m Manifest) FrameSize() int64 {
	size := int64(frameHeaderSize)
	if m.HasBox {
		size += boxSize
	}
	vec := int64(m.NAtoms) * 3 * 4
	if m.HasPositions {
		size += vec
	}
	if m.HasVelocities {
		size += vec
	}
	if m.HasForces {
		size += vec
	}
	return size
}

// Marshal encodes the manifest as JSON.
func (m Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalManifest decodes a manifest from JSON.
func UnmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}
