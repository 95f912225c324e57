package quantization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
)

// qnode is one quantized operation. The input parameters of a node are the
// output parameters of its predecessor, so only the output side is stored.
type qnode struct {
	op       graph.OpKind
	name     string
	out      Params
	weights  []int32 // flat row-major, wr x wc
	wr, wc   int
	wParams  Params
	bias     []float64
	lut      []int32
	pairwise bool
}

// Module is a quantized computation graph: integer tensors flow between
// nodes, and the affine parameters attached to each tensor carry the mapping
// back to the real domain. A Module is immutable after quantization and safe
// for concurrent use.
type Module struct {
	features int
	outWidth int
	nBits    int
	maxBits  int

	inName string
	input  Params
	nodes  []qnode

	profiles map[string]*ValueProfile
}

// InputFeatures returns the feature count the module was quantized for.
func (m *Module) InputFeatures() int { return m.features }

// OutputWidth returns the number of output columns per sample.
func (m *Module) OutputWidth() int { return m.outWidth }

// NBits returns the bit width activations and weights were quantized to.
func (m *Module) NBits() int { return m.nBits }

// MaxBitWidth returns the widest signed integer observed anywhere in the
// module while the calibration batch ran through the integer kernels,
// accumulators included.
func (m *Module) MaxBitWidth() int { return m.maxBits }

// SigmoidInGraph reports whether a sigmoid op survived into the quantized
// graph. Post-processing skips its own sigmoid when the graph already
// applied one.
func (m *Module) SigmoidInGraph() bool {
	for i := range m.nodes {
		if m.nodes[i].op == graph.OpSigmoid {
			return true
		}
	}
	return false
}

// InputParams returns the affine parameters of the input tensor.
func (m *Module) InputParams() Params { return m.input }

// OutputParams returns the affine parameters of the output tensor.
func (m *Module) OutputParams() Params { return m.nodes[len(m.nodes)-1].out }

// Profile returns the value profile recorded for a tensor during
// quantization, or nil if none exists. Accumulator streams are tracked under
// "<tensor>/acc". Profiles are runtime diagnostics and do not survive
// serialization.
func (m *Module) Profile(name string) *ValueProfile { return m.profiles[name] }

// Tensors returns the profiled tensor names in sorted order.
func (m *Module) Tensors() []string {
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QuantizeInput maps a real-valued batch onto input integer levels.
func (m *Module) QuantizeInput(x *mat.Dense) ([][]int32, error) {
	rows, cols := x.Dims()
	if cols != m.features {
		return nil, &graph.ErrWidthMismatch{Expected: m.features, Actual: cols}
	}
	q := make([][]int32, rows)
	row := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, x)
		q[r] = m.input.QuantizeSlice(row)
	}
	return q, nil
}

// Forward runs the integer kernels over a batch of quantized rows and
// returns the quantized output rows.
func (m *Module) Forward(q [][]int32) ([][]int32, error) {
	out := make([][]int32, len(q))
	for r, row := range q {
		if len(row) != m.features {
			return nil, &graph.ErrWidthMismatch{Expected: m.features, Actual: len(row)}
		}
		out[r] = m.forward(row, nil)
	}
	return out, nil
}

// DequantizeOutput maps quantized output rows back to real values.
func (m *Module) DequantizeOutput(q [][]int32) *mat.Dense {
	p := m.OutputParams()
	out := mat.NewDense(len(q), m.outWidth, nil)
	for r, row := range q {
		for c, v := range row {
			out.Set(r, c, p.Dequantize(v))
		}
	}
	return out
}

// Predict quantizes a real-valued batch, runs the integer kernels, and
// dequantizes the result.
func (m *Module) Predict(x *mat.Dense) (*mat.Dense, error) {
	q, err := m.QuantizeInput(x)
	if err != nil {
		return nil, err
	}
	fwd, err := m.Forward(q)
	if err != nil {
		return nil, err
	}
	return m.DequantizeOutput(fwd), nil
}

type recorder func(name string, v int64)

// forward runs one quantized row through every node. The recorder, when
// non-nil, sees every integer the kernels produce.
func (m *Module) forward(row []int32, rec recorder) []int32 {
	cur := row
	inP := m.input
	for i := range m.nodes {
		n := &m.nodes[i]
		var next []int32

		switch n.op {
		case graph.OpMatMul:
			next = make([]int32, n.wc)
			for j := 0; j < n.wc; j++ {
				var acc int64
				for k := 0; k < n.wr; k++ {
					acc += int64(cur[k]-inP.ZeroPoint) * int64(n.weights[k*n.wc+j])
				}
				if rec != nil {
					rec(n.name+"/acc", acc)
				}
				next[j] = n.out.Quantize(inP.Scale * n.wParams.Scale * float64(acc))
			}

		case graph.OpMul:
			next = make([]int32, len(cur))
			for k := range cur {
				acc := int64(cur[k]-inP.ZeroPoint) * int64(n.weights[k])
				if rec != nil {
					rec(n.name+"/acc", acc)
				}
				next[k] = n.out.Quantize(inP.Scale * n.wParams.Scale * float64(acc))
			}

		case graph.OpAdd:
			next = make([]int32, len(cur))
			for k := range cur {
				next[k] = n.out.Quantize(inP.Dequantize(cur[k]) + n.bias[k])
			}

		case graph.OpReduceSum:
			var real float64
			if n.pairwise {
				t := m.pairwiseTree(cur, n.name, rec)
				real = inP.Scale * float64(t-int64(inP.ZeroPoint)) * float64(len(cur))
			} else {
				var acc int64
				for k := range cur {
					acc += int64(cur[k] - inP.ZeroPoint)
				}
				if rec != nil {
					rec(n.name+"/acc", acc)
				}
				real = inP.Scale * float64(acc)
			}
			next = []int32{n.out.Quantize(real)}

		case graph.OpSigmoid:
			next = make([]int32, len(cur))
			base := inP.QMin()
			for k := range cur {
				idx := int(cur[k] - base)
				if idx < 0 {
					idx = 0
				} else if idx >= len(n.lut) {
					idx = len(n.lut) - 1
				}
				next[k] = n.lut[idx]
			}
		}

		if rec != nil {
			for _, v := range next {
				rec(n.name, int64(v))
			}
		}
		cur = next
		inP = n.out
	}
	return cur
}

// pairwiseTree reduces quantized levels as the overflow-safe tree does: each
// level adds pairs and halves, so every intermediate stays within the input
// level range. The caller rescales the root by the element count.
func (m *Module) pairwiseTree(cur []int32, name string, rec recorder) int64 {
	buf := make([]int64, len(cur))
	for i, v := range cur {
		buf[i] = int64(v)
	}
	for width := len(buf); width > 1; width /= 2 {
		for i := 0; i < width/2; i++ {
			buf[i] = (buf[2*i] + buf[2*i+1]) >> 1
			if rec != nil {
				rec(name+"/acc", buf[i])
			}
		}
	}
	return buf[0]
}

// profile runs the calibration batch through the integer kernels once,
// recording every produced value, and freezes the observed maximum bit
// width. Called exactly once while the module is built.
func (m *Module) profile(batch [][]int32) {
	m.profiles = make(map[string]*ValueProfile)
	rec := func(name string, v int64) {
		vp := m.profiles[name]
		if vp == nil {
			vp = newValueProfile()
			m.profiles[name] = vp
		}
		vp.record(v)
	}
	for _, row := range batch {
		for _, v := range row {
			rec(m.inName, int64(v))
		}
		m.forward(row, rec)
	}
	for _, vp := range m.profiles {
		if w := vp.MaxBitWidth(); w > m.maxBits {
			m.maxBits = w
		}
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// Format (little-endian):
//
//	[features:uint32][out_width:uint32][n_bits:uint8][max_bits:uint8]
//	[input:params][node_count:uint32]
//	per node: [op:uint8][flags:uint8][name_len:uint16][name]
//	          [out:params][wr:uint32][wc:uint32]{[w:params][weights:int32...]}
//	          [bias_len:uint32][bias:float64...][lut_len:uint32][lut:int32...]
func (m *Module) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 256)
	b = binary.LittleEndian.AppendUint32(b, uint32(m.features))
	b = binary.LittleEndian.AppendUint32(b, uint32(m.outWidth))
	b = append(b, uint8(m.nBits), uint8(m.maxBits))
	b = appendParams(b, m.input)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m.nodes)))

	for i := range m.nodes {
		n := &m.nodes[i]
		var flags uint8
		if n.pairwise {
			flags |= 1
		}
		b = append(b, uint8(n.op), flags)
		if len(n.name) > math.MaxUint16 {
			return nil, fmt.Errorf("tensor name %q too long", n.name)
		}
		b = binary.LittleEndian.AppendUint16(b, uint16(len(n.name)))
		b = append(b, n.name...)
		b = appendParams(b, n.out)
		b = binary.LittleEndian.AppendUint32(b, uint32(n.wr))
		b = binary.LittleEndian.AppendUint32(b, uint32(n.wc))
		if n.wr*n.wc > 0 {
			b = appendParams(b, n.wParams)
			for _, w := range n.weights {
				b = binary.LittleEndian.AppendUint32(b, uint32(w))
			}
		}
		b = binary.LittleEndian.AppendUint32(b, uint32(len(n.bias)))
		for _, v := range n.bias {
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
		}
		b = binary.LittleEndian.AppendUint32(b, uint32(len(n.lut)))
		for _, v := range n.lut {
			b = binary.LittleEndian.AppendUint32(b, uint32(v))
		}
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Module) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}

	m.features = int(r.u32())
	m.outWidth = int(r.u32())
	m.nBits = int(r.u8())
	m.maxBits = int(r.u8())
	m.input = r.params()

	count := int(r.u32())
	if r.err != nil {
		return r.err
	}
	if count <= 0 || count > 1<<16 {
		return fmt.Errorf("invalid node count %d", count)
	}

	m.nodes = make([]qnode, count)
	for i := 0; i < count; i++ {
		n := &m.nodes[i]
		n.op = graph.OpKind(r.u8())
		flags := r.u8()
		n.pairwise = flags&1 != 0
		n.name = r.str(int(r.u16()))
		n.out = r.params()
		n.wr = int(r.u32())
		n.wc = int(r.u32())
		if r.err != nil {
			return r.err
		}
		if n.op < graph.OpMatMul || n.op > graph.OpSigmoid {
			return fmt.Errorf("invalid op %d at node %d", uint8(n.op), i)
		}
		if n.wr < 0 || n.wc < 0 || n.wr*n.wc > 1<<28 {
			return fmt.Errorf("invalid weight dims %dx%d at node %d", n.wr, n.wc, i)
		}
		if n.wr*n.wc > 0 {
			n.wParams = r.params()
			n.weights = r.i32s(n.wr * n.wc)
		}
		n.bias = r.f64s(int(r.u32()))
		n.lut = r.i32s(int(r.u32()))
		if r.err != nil {
			return r.err
		}
	}
	if r.off != len(data) {
		return errors.New("trailing bytes after module data")
	}
	m.profiles = nil
	return nil
}

func appendParams(b []byte, p Params) []byte {
	enc, _ := p.MarshalBinary()
	return append(b, enc...)
}

// byteReader decodes little-endian fields sequentially, latching the first
// error so call sites stay flat.
type byteReader struct {
	data []byte
	off  int
	err  error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errors.New("truncated module data")
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *byteReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *byteReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *byteReader) str(n int) string {
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *byteReader) params() Params {
	b := r.take(paramsBinaryLen)
	if b == nil {
		return Params{}
	}
	var p Params
	if err := p.UnmarshalBinary(b); err != nil && r.err == nil {
		r.err = err
	}
	return p
}

func (r *byteReader) i32s(n int) []int32 {
	b := r.take(4 * n)
	if b == nil {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func (r *byteReader) f64s(n int) []float64 {
	b := r.take(8 * n)
	if b == nil {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out
}
