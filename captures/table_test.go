package captures

import "testing"

func TestNewResetLen(t *testing.T) {
	tbl := New(3, map[string]int{"year": 1})
	if tbl.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tbl.Len())
	}
	for i := 0; i < tbl.Len(); i++ {
		if _, _, ok := tbl.Group(i); ok {
			t.Fatalf("group %d should start unset", i)
		}
	}
}

func TestGroupSetAndReset(t *testing.T) {
	tbl := New(2, nil)
	tbl.Starts[0], tbl.Ends[0] = 0, 5
	start, end, ok := tbl.Group(0)
	if !ok || start != 0 || end != 5 {
		t.Fatalf("Group(0) = %d,%d,%v want 0,5,true", start, end, ok)
	}
	tbl.Reset()
	if _, _, ok := tbl.Group(0); ok {
		t.Fatal("Group(0) should be unset after Reset")
	}
}

func TestByName(t *testing.T) {
	tbl := New(2, map[string]int{"word": 1})
	tbl.Starts[1], tbl.Ends[1] = 2, 7
	start, end, ok := tbl.ByName("word")
	if !ok || start != 2 || end != 7 {
		t.Fatalf("ByName(word) = %d,%d,%v want 2,7,true", start, end, ok)
	}
	if _, _, ok := tbl.ByName("missing"); ok {
		t.Fatal("ByName(missing) should report not-ok")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(1, nil)
	tbl.Starts[0], tbl.Ends[0] = 1, 2
	clone := tbl.Clone()
	clone.Starts[0] = 99
	if tbl.Starts[0] != 1 {
		t.Fatal("mutating clone affected original")
	}
}

func TestCopyFrom(t *testing.T) {
	src := New(2, nil)
	src.Starts[0], src.Ends[0] = 3, 4
	dst := New(2, nil)
	dst.CopyFrom(src)
	if dst.Starts[0] != 3 || dst.Ends[0] != 4 {
		t.Fatalf("CopyFrom did not copy slot 0: %+v", dst)
	}
}
