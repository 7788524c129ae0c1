// Package captures implements the capture-group table spec.md §3 names: a
// dense array indexed by group number, where an unset start/end position
// is distinct from zero.
package captures

// Unset marks a group slot that has not been written on the current path.
const Unset = -1

// Table is a matcher context's capture-group table, sized at matcher
// creation to the pattern's group count plus one (index 0 = whole match).
type Table struct {
	Starts []int
	Ends   []int
	Names  map[string]int // group name -> group number, for named groups
}

// New allocates a table for groupCount capturing groups (plus group 0).
func New(groupCount int, names map[string]int) *Table {
	t := &Table{
		Starts: make([]int, groupCount+1),
		Ends:   make([]int, groupCount+1),
		Names:  names,
	}
	t.Reset()
	return t
}

// Reset marks every slot unset, for reuse across match attempts on a
// pooled matcher context.
func (t *Table) Reset() {
	for i := range t.Starts {
		t.Starts[i] = Unset
		t.Ends[i] = Unset
	}
}

// Len reports the number of slots, including group 0.
func (t *Table) Len() int { return len(t.Starts) }

// Group returns (start, end, ok): ok is false if the group never matched
// on the winning path.
func (t *Table) Group(n int) (start, end int, ok bool) {
	if n < 0 || n >= len(t.Starts) {
		return Unset, Unset, false
	}
	if t.Starts[n] == Unset || t.Ends[n] == Unset {
		return Unset, Unset, false
	}
	return t.Starts[n], t.Ends[n], true
}

// ByName resolves a named group to its slice via Group.
func (t *Table) ByName(name string) (start, end int, ok bool) {
	n, present := t.Names[name]
	if !present {
		return Unset, Unset, false
	}
	return t.Group(n)
}

// Clone returns an independent deep copy, used by the bounded-backtracking
// executor to snapshot state before entering a SPLIT branch.
func (t *Table) Clone() *Table {
	c := &Table{
		Starts: append([]int(nil), t.Starts...),
		Ends:   append([]int(nil), t.Ends...),
		Names:  t.Names,
	}
	return c
}

// CopyFrom overwrites t's slots from src, without reallocating (used to
// restore a snapshot on backtrack).
func (t *Table) CopyFrom(src *Table) {
	copy(t.Starts, src.Starts)
	copy(t.Ends, src.Ends)
}
