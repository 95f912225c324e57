package benchmark_test

import (
	"testing"

	"github.com/hupe1980/quantfit/artifact"
)

// BenchmarkArtifactEncode compares snapshot encoding across the supported
// compression codecs.
func BenchmarkArtifactEncode(b *testing.B) {
	model, _ := fitRegressor(b, 1024, 16)
	module, err := model.Artifact()
	if err != nil {
		b.Fatal(err)
	}
	a := &artifact.Artifact{
		Kind:   "linear_regression",
		NBits:  8,
		Module: module,
	}

	for _, compression := range []artifact.CompressionType{
		artifact.CompressionNone,
		artifact.CompressionLZ4,
		artifact.CompressionZSTD,
	} {
		b.Run(compression.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := artifact.Encode(a, compression); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkArtifactDecode measures the load path a serving process pays per
// registry read.
func BenchmarkArtifactDecode(b *testing.B) {
	model, _ := fitRegressor(b, 1024, 16)
	module, err := model.Artifact()
	if err != nil {
		b.Fatal(err)
	}

	for _, compression := range []artifact.CompressionType{
		artifact.CompressionNone,
		artifact.CompressionZSTD,
	} {
		data, err := artifact.Encode(&artifact.Artifact{
			Kind:   "linear_regression",
			NBits:  8,
			Module: module,
		}, compression)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(compression.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := artifact.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
