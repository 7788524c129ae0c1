//go:build !amd64

package cpudetect

// FastPathAvailable is false on architectures without the AVX2 probe.
func FastPathAvailable() bool {
	return false
}
