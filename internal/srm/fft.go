package srm

import (
	"github.com/mjibson/go-dsp/fft"
)

// fftN transforms buf, a row-major array of the given shape, in place along
// every axis.
func fftN(buf []complex128, shape []int) {
	stride := 1
	for ax := len(shape) - 1; ax >= 0; ax-- {
		n := shape[ax]
		if n > 1 {
			line := make([]complex128, n)
			block := n * stride
			for base := 0; base < len(buf); base += block {
				for off := 0; off < stride; off++ {
					for i := 0; i < n; i++ {
						line[i] = buf[base+off+i*stride]
					}
					out := fft.FFT(line)
					for i := 0; i < n; i++ {
						buf[base+off+i*stride] = out[i]
					}
				}
			}
		}
		stride *= n
	}
}
