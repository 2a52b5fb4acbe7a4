package internal

import "testing"

func TestSquashStretchReciprocity(t *testing.T) {
	for d := -2047; d <= 2047; d++ {
		p := Squash(d)
		back := Stretch(p)
		diff := back - d
		if diff < -1 || diff > 1 {
			t.Fatalf("stretch(squash(%d))=%d, want within 1 of %d", d, back, d)
		}
	}
}

func TestSquashBounds(t *testing.T) {
	if Squash(-3000) != 0 {
		t.Fatalf("Squash of very negative input should saturate to 0")
	}
	if Squash(3000) != 4095 {
		t.Fatalf("Squash of very positive input should saturate to 4095")
	}
}

func TestILogMonotonic(t *testing.T) {
	prev := ILog(1)
	for x := 2; x < 65536; x++ {
		cur := ILog(uint16(x))
		if cur < prev {
			t.Fatalf("ILog not monotonic at x=%d: %d < %d", x, cur, prev)
		}
		prev = cur
	}
}

func TestLLogRanges(t *testing.T) {
	if LLog(1) != ILog(1) {
		t.Fatalf("LLog should match ILog in the low range")
	}
	if LLog(1<<20) != 128+ILog(uint16(1<<20>>8)) {
		t.Fatalf("LLog mid-range formula mismatch")
	}
	if LLog(1<<28) != 256+ILog(uint16(1<<28>>16)) {
		t.Fatalf("LLog high-range formula mismatch")
	}
}

func TestPRNGDeterministic(t *testing.T) {
	a := NewPRNG()
	b := NewPRNG()
	for i := 0; i < 1000; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("two freshly seeded PRNGs diverged at step %d", i)
		}
	}
}
