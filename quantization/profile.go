package quantization

import (
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ValueProfile records the distinct integer values a tensor took while the
// calibration batch ran through the integer kernels. Values are
// zigzag-encoded into a roaring bitmap, so profiles stay compact even for
// wide accumulators.
//
// Profiles are frozen once quantization finishes; reads are safe from
// concurrent goroutines.
type ValueProfile struct {
	values *roaring64.Bitmap
}

func newValueProfile() *ValueProfile {
	return &ValueProfile{values: roaring64.NewBitmap()}
}

func (vp *ValueProfile) record(v int64) {
	vp.values.Add(zigzag(v))
}

// Levels returns the number of distinct values observed.
func (vp *ValueProfile) Levels() uint64 {
	return vp.values.GetCardinality()
}

// IsEmpty reports whether the profile saw any value at all.
func (vp *ValueProfile) IsEmpty() bool {
	return vp.values.IsEmpty()
}

// MaxBitWidth returns the bit width of the narrowest signed integer type that
// represents every observed value. An empty profile reports zero.
func (vp *ValueProfile) MaxBitWidth() int {
	if vp.values.IsEmpty() {
		return 0
	}
	max := vp.values.Maximum()
	if max&1 == 1 {
		// Negative extreme: -2^(b-1) fits in b bits.
		return bits.Len64((max+1)>>1-1) + 1
	}
	if max>>1 == 0 {
		return 1
	}
	return bits.Len64(max>>1) + 1
}

// zigzag maps signed values onto the unsigned domain, interleaving positives
// and negatives so that magnitude ordering survives.
func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}
