package artifact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
	"github.com/hupe1980/quantfit/quantization"
)

func testArtifact(tb testing.TB, classes []float64) (*Artifact, *mat.Dense) {
	tb.Helper()

	w := mat.NewDense(2, 3, []float64{
		1.0, -0.5, 0.25,
		0.5, 1.0, -1.0,
	})
	g, err := graph.BuildLinear(w, []float64{0.1, -0.2}, false)
	require.NoError(tb, err)

	calib := mat.NewDense(4, 3, []float64{
		-1.0, -1.0, -1.0,
		-0.5, 0.5, 1.0,
		0.5, -0.5, 0.0,
		1.0, 1.0, 1.0,
	})

	ptq, err := quantization.NewPostTrainingQuantizer(8)
	require.NoError(tb, err)
	m, err := ptq.QuantizeModule(g, calib)
	require.NoError(tb, err)

	a := &Artifact{
		Kind:      "regressor",
		Algorithm: "linear-regression",
		NBits:     8,
		Module:    m,
	}
	if len(classes) > 0 {
		a.Kind = "classifier"
		a.Algorithm = "logistic-regression"
		a.Classes = classes
	}

	return a, calib
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	a, calib := testArtifact(t, []float64{0, 1})

	want, err := a.Module.Predict(calib)
	require.NoError(t, err)

	for _, compression := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			data, err := Encode(a, compression)
			require.NoError(t, err)

			var h FileHeader
			require.NoError(t, h.decode(data))
			assert.Equal(t, uint32(MagicNumber), h.Magic)
			assert.Equal(t, uint8(compression), h.Compression)
			assert.Equal(t, uint8(flagClassifier), h.Flags)

			restored, err := Decode(data)
			require.NoError(t, err)

			assert.Equal(t, a.Kind, restored.Kind)
			assert.Equal(t, a.Algorithm, restored.Algorithm)
			assert.Equal(t, a.NBits, restored.NBits)
			assert.Equal(t, a.Classes, restored.Classes)
			assert.True(t, restored.IsClassifier())

			assert.Equal(t, a.Module.MaxBitWidth(), restored.Module.MaxBitWidth())

			got, err := restored.Module.Predict(calib)
			require.NoError(t, err)
			assert.True(t, mat.Equal(want, got), "restored module must predict identically")
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a, _ := testArtifact(t, nil)

	first, err := Encode(a, CompressionZSTD)
	require.NoError(t, err)

	second, err := Encode(a, CompressionZSTD)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "encoding the same artifact twice must produce identical bytes")
}

func TestEncode_RegressorFlags(t *testing.T) {
	a, _ := testArtifact(t, nil)
	require.False(t, a.IsClassifier())

	data, err := Encode(a, CompressionNone)
	require.NoError(t, err)

	var h FileHeader
	require.NoError(t, h.decode(data))
	assert.Equal(t, uint8(0), h.Flags)

	restored, err := Decode(data)
	require.NoError(t, err)
	assert.False(t, restored.IsClassifier())
	assert.Nil(t, restored.Classes)
}

func TestEncode_MissingModule(t *testing.T) {
	_, err := Encode(nil, CompressionNone)
	require.Error(t, err)

	_, err = Encode(&Artifact{Kind: "regressor"}, CompressionNone)
	require.Error(t, err)
}

func TestDecode_CorruptPayload(t *testing.T) {
	a, _ := testArtifact(t, nil)

	data, err := Encode(a, CompressionZSTD)
	require.NoError(t, err)

	// Flip one payload byte; the checksum must catch it before parsing.
	data[len(data)-1] ^= 0xFF

	_, err = Decode(data)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err), "expected checksum mismatch, got %v", err)
}

func TestDecode_InvalidMagic(t *testing.T) {
	a, _ := testArtifact(t, nil)

	data, err := Encode(a, CompressionNone)
	require.NoError(t, err)

	data[0] ^= 0xFF

	_, err = Decode(data)
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	a, _ := testArtifact(t, nil)

	data, err := Encode(a, CompressionNone)
	require.NoError(t, err)

	// Bump the version field past anything we can read.
	data[7] = 0xFF

	_, err = Decode(data)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecode_Truncated(t *testing.T) {
	a, _ := testArtifact(t, nil)

	data, err := Encode(a, CompressionNone)
	require.NoError(t, err)

	_, err = Decode(data[:fileHeaderSize/2])
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecode_SizeMismatch(t *testing.T) {
	a, _ := testArtifact(t, nil)

	data, err := Encode(a, CompressionNone)
	require.NoError(t, err)

	// The header sizes are not covered by the payload checksum, so a
	// tampered MetaSize must still be rejected after decompression.
	var h FileHeader
	require.NoError(t, h.decode(data))
	h.MetaSize++
	copy(data[:fileHeaderSize], h.encode())

	_, err = Decode(data)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func BenchmarkEncode(b *testing.B) {
	a, _ := testArtifact(b, []float64{0, 1})

	b.ResetTimer()
	for b.Loop() {
		if _, err := Encode(a, CompressionZSTD); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	a, _ := testArtifact(b, []float64{0, 1})

	data, err := Encode(a, CompressionZSTD)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
