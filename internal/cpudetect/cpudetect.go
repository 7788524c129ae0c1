// Package cpudetect probes CPU features to decide whether the matcher
// runtime can take the all-ASCII fast path: skipping per-rune UTF-8
// decoding when FlagUTF8 is set and the haystack is known to be pure
// ASCII. FastPathAvailable reports whether the current architecture
// offers an accelerated byte-range scan for the probe; IsASCII is the
// portable probe itself, used regardless of the answer.
package cpudetect

// IsASCII reports whether every byte in b is < 0x80.
func IsASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
