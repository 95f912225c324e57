package quantization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Params describes a per-tensor affine quantization:
//
//	real = Scale * (q - ZeroPoint)
//
// Signed selects the integer range: [-2^(Bits-1), 2^(Bits-1)-1] when set,
// [0, 2^Bits-1] otherwise.
type Params struct {
	Scale     float64
	ZeroPoint int32
	Bits      uint8
	Signed    bool
}

// QMin returns the lowest representable integer level.
func (p Params) QMin() int32 {
	if p.Signed {
		return -(int32(1) << (p.Bits - 1))
	}
	return 0
}

// QMax returns the highest representable integer level.
func (p Params) QMax() int32 {
	if p.Signed {
		return (int32(1) << (p.Bits - 1)) - 1
	}
	return (int32(1) << p.Bits) - 1
}

// Levels returns the number of representable integer levels.
func (p Params) Levels() int {
	return 1 << p.Bits
}

// FromRange derives affine parameters covering [rMin, rMax] with the given
// bit width. The range is widened to include zero so that zero keeps an exact
// representation; degenerate ranges quantize with unit scale.
func FromRange(rMin, rMax float64, bits uint8, signed bool) Params {
	if rMin > 0 {
		rMin = 0
	}
	if rMax < 0 {
		rMax = 0
	}

	p := Params{Bits: bits, Signed: signed}
	qMin, qMax := p.QMin(), p.QMax()

	if rMax == rMin {
		p.Scale = 1
		p.ZeroPoint = 0
		return p
	}

	p.Scale = (rMax - rMin) / float64(qMax-qMin)
	zp := float64(qMin) - rMin/p.Scale
	p.ZeroPoint = clampI64(int64(math.Round(zp)), int64(qMin), int64(qMax))
	return p
}

// Symmetric derives signed parameters for a weight tensor: zero point 0 and a
// scale covering the largest magnitude.
func Symmetric(absMax float64, bits uint8) Params {
	p := Params{Bits: bits, Signed: true}
	if absMax == 0 {
		p.Scale = 1
		return p
	}
	p.Scale = absMax / float64(p.QMax())
	return p
}

// Quantize maps a real value to its integer level, saturating at the range
// bounds.
func (p Params) Quantize(v float64) int32 {
	q := int64(math.Round(v/p.Scale)) + int64(p.ZeroPoint)
	return clampI64(q, int64(p.QMin()), int64(p.QMax()))
}

// Dequantize maps an integer level back to its real value.
func (p Params) Dequantize(q int32) float64 {
	return p.Scale * float64(q-p.ZeroPoint)
}

// QuantizeSlice quantizes a row of real values.
func (p Params) QuantizeSlice(v []float64) []int32 {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = p.Quantize(x)
	}
	return out
}

// DequantizeSlice dequantizes a row of integer levels.
func (p Params) DequantizeSlice(q []int32) []float64 {
	out := make([]float64, len(q))
	for i, x := range q {
		out[i] = p.Dequantize(x)
	}
	return out
}

const paramsBinaryLen = 14

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [scale:float64][zero_point:int32][bits:uint8][signed:uint8]
func (p Params) MarshalBinary() ([]byte, error) {
	b := make([]byte, paramsBinaryLen)
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(p.Scale))
	binary.LittleEndian.PutUint32(b[8:12], uint32(p.ZeroPoint))
	b[12] = p.Bits
	if p.Signed {
		b[13] = 1
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Params) UnmarshalBinary(data []byte) error {
	if len(data) != paramsBinaryLen {
		return errors.New("invalid quantization params binary length")
	}
	p.Scale = math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
	p.ZeroPoint = int32(binary.LittleEndian.Uint32(data[8:12]))
	p.Bits = data[12]
	p.Signed = data[13] == 1
	if p.Bits == 0 || p.Bits > 24 {
		return fmt.Errorf("invalid bit width %d", p.Bits)
	}
	return nil
}

func clampI64(v, lo, hi int64) int32 {
	if v < lo {
		return int32(lo)
	}
	if v > hi {
		return int32(hi)
	}
	return int32(v)
}
