package gridseq

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// BufferFromFloat16 converts a raw float16 model output buffer into float32
// values.  Oracles backed by runtimes that emit half precision tensors can
// use this before wrapping their buffers with NewOutputs.
func BufferFromFloat16(buf []uint16) []float32 {

	out := make([]float32, len(buf))

	for i, bits := range buf {
		out[i] = f16LookupTable[bits]
	}

	return out
}
