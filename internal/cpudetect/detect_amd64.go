//go:build amd64

package cpudetect

import "golang.org/x/sys/cpu"

// HasAVX2 reports whether the running CPU supports AVX2, set once at
// package init.
var HasAVX2 = cpu.X86.HasAVX2

// FastPathAvailable reports whether this architecture offers an
// accelerated ASCII-validity scan. The current implementation of IsASCII
// is portable pure Go; this flag exists so EnableASCIIOptimization can be
// wired to an actual hardware capability rather than always true, the way
// the teacher's simd package gates its AVX2 memchr paths.
func FastPathAvailable() bool {
	return HasAVX2
}
