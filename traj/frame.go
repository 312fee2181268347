package traj

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// Frame layout, little endian:
	//   step uint64, time float64            (header)
	//   box  6 x float64                     (if HasBox)
	//   positions  n_atoms x 3 x float32     (if HasPositions)
	//   velocities n_atoms x 3 x float32     (if HasVelocities)
	//   forces     n_atoms x 3 x float32     (if HasForces)
	frameHeaderSize = 16
	boxSize         = 48
)

// Timestep holds one decoded trajectory frame.
//
// Dimensions is the unit cell as [lx, ly, lz, alpha, beta, gamma];
// the zero value means the frame carries no box. The per-atom slices are
// flat [x0, y0, z0, x1, ...] arrays of length 3*NAtoms; absent datasets
// are nil.
type Timestep struct {
	Frame      int
	Step       uint64
	Time       float64
	Dimensions [6]float64
	Positions  []float32
	Velocities []float32
	Forces     []float32
}

// decodeFrame fills ts from the frame's encoded bytes.
// ts's slices are reused when already sized; data is not retained.
func decodeFrame(m Manifest, frame int, data []byte, ts *Timestep) error {
	if int64(len(data)) != m.FrameSize() {
		return fmt.Errorf("frame %d: got %d bytes, frame size is %d", frame, len(data), m.FrameSize())
	}

	ts.Frame = frame
	ts.Step = binary.LittleEndian.Uint64(data)
	ts.Time = math.Float64frombits(binary.LittleEndian.Uint64(data[8:]))
	off := frameHeaderSize

	if m.HasBox {
		for i := range ts.Dimensions {
			ts.Dimensions[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
	} else {
		ts.Dimensions = [6]float64{}
	}

	n := m.NAtoms * 3
	readVec := func(dst *[]float32) {
		if len(*dst) != n {
			*dst = make([]float32, n)
		}
		for i := 0; i < n; i++ {
			(*dst)[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
	}

	if m.HasPositions {
		readVec(&ts.Positions)
	} else {
		ts.Positions = nil
	}
	if m.HasVelocities {
		readVec(&ts.Velocities)
	} else {
		ts.Velocities = nil
	}
	if m.HasForces {
		readVec(&ts.Forces)
	} else {
		ts.Forces = nil
	}
	return nil
}
