package predictor

import "testing"

func TestStateMapTracksConstantBit(t *testing.T) {
	sm := NewStateMap()
	var p int
	for i := 0; i < 4000; i++ {
		p = sm.P(5, 1)
	}
	if p < 3800 {
		t.Fatalf("StateMap.P should converge near 4095 for a constant 1 bit, got %d", p)
	}
}

func TestStateMapIndependentContexts(t *testing.T) {
	sm := NewStateMap()
	for i := 0; i < 2000; i++ {
		sm.P(1, 1)
	}
	for i := 0; i < 2000; i++ {
		sm.P(2, 0)
	}
	p1 := sm.P(1, 1)
	p2 := sm.P(2, 0)
	if p1 < 2048 {
		t.Fatalf("context 1 trained toward 1 should predict p>2048, got %d", p1)
	}
	if p2 > 2048 {
		t.Fatalf("context 2 trained toward 0 should predict p<2048, got %d", p2)
	}
}
