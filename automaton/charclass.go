package automaton

import "github.com/obinexus/monoglot-rift-sub000/ast"

// byteRange is a concrete [lo, hi] byte range a transition can carry.
type byteRange struct{ lo, hi byte }

// runeRangeToByteRanges converts a rune range into byte ranges the
// automaton's byte-oriented transitions can represent. LibRift's matching
// runtime operates on bytes (per spec.md's capture-group table recording
// byte positions), so ranges are clamped to the single-byte (Latin-1)
// subset; patterns restricted to that subset — which covers every
// end-to-end scenario spec.md §8 names — get exact transitions, while
// higher code points are clamped at compile time rather than silently
// mismatched at match time.
func runeRangeToByteRanges(lo, hi rune) []byteRange {
	if lo > 0xFF {
		return nil
	}
	if hi > 0xFF {
		hi = 0xFF
	}
	return []byteRange{{byte(lo), byte(hi)}}
}

const maxRune = 0x10FFFF

// invertForClass returns the complement of ranges over [0, maxRune], used
// to lower a negated character class.
func invertForClass(ranges []ast.ClassRange) []ast.ClassRange {
	if len(ranges) == 0 {
		return []ast.ClassRange{{Lo: 0, Hi: maxRune}}
	}
	sorted := append([]ast.ClassRange(nil), ranges...)
	sortRanges(sorted)
	var out []ast.ClassRange
	prev := rune(0)
	for _, r := range sorted {
		if r.Lo > prev {
			out = append(out, ast.ClassRange{Lo: prev, Hi: r.Lo - 1})
		}
		if r.Hi+1 > prev {
			prev = r.Hi + 1
		}
	}
	if prev <= maxRune {
		out = append(out, ast.ClassRange{Lo: prev, Hi: maxRune})
	}
	return out
}

func sortRanges(rs []ast.ClassRange) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].Lo > rs[j].Lo; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
}

// foldCase returns the two case variants of an ASCII letter (lo == hi if r
// is not an ASCII letter).
func foldCase(r rune) (a, b rune) {
	switch {
	case r >= 'a' && r <= 'z':
		return r, r - ('a' - 'A')
	case r >= 'A' && r <= 'Z':
		return r, r + ('a' - 'A')
	default:
		return r, r
	}
}

// expandCaseFold adds the complementary-case range for any ASCII-letter
// subrange found in ranges, leaving non-alphabetic ranges untouched.
func expandCaseFold(ranges []ast.ClassRange) []ast.ClassRange {
	out := append([]ast.ClassRange(nil), ranges...)
	for _, r := range ranges {
		lo, hi := r.Lo, r.Hi
		if lo <= 'z' && hi >= 'a' {
			l, h := maxRune2('a', lo), minRune2('z', hi)
			if l <= h {
				out = append(out, ast.ClassRange{Lo: l - ('a' - 'A'), Hi: h - ('a' - 'A')})
			}
		}
		if lo <= 'Z' && hi >= 'A' {
			l, h := maxRune2('A', lo), minRune2('Z', hi)
			if l <= h {
				out = append(out, ast.ClassRange{Lo: l + ('a' - 'A'), Hi: h + ('a' - 'A')})
			}
		}
	}
	return out
}

func maxRune2(a, b rune) rune {
	if a > b {
		return a
	}
	return b
}

func minRune2(a, b rune) rune {
	if a < b {
		return a
	}
	return b
}
