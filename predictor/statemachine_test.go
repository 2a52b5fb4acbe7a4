package predictor

import "testing"

func TestStateTableZeroStateCounts(t *testing.T) {
	st := NewStateTable()
	n0, n1 := st.Counts(0)
	if n0 != 0 || n1 != 0 {
		t.Fatalf("state 0 should have no history, got n0=%d n1=%d", n0, n1)
	}
}

func TestStateTableTransitionsStayInRange(t *testing.T) {
	st := NewStateTable()
	for s := 0; s < 256; s++ {
		for _, bit := range []byte{0, 1} {
			ns := st.Next(byte(s), bit)
			if ns > 252 {
				t.Fatalf("Next(%d, %d) = %d, want a state in 0..252", s, bit, ns)
			}
		}
	}
}

func TestStateTableRunOfOnesIncreasesN1(t *testing.T) {
	st := NewStateTable()
	s := byte(0)
	for i := 0; i < 20; i++ {
		s = st.Next(s, 1)
	}
	n0, n1 := st.Counts(s)
	if n1 == 0 {
		t.Fatalf("after a long run of 1 bits, n1 should be nonzero, got n0=%d n1=%d", n0, n1)
	}
}
