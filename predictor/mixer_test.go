package predictor

import "testing"

func TestMixerLearnsStrongSingleInput(t *testing.T) {
	mx := NewMixer(8, 4, 1)
	var p int
	for i := 0; i < 500; i++ {
		mx.Add(2000) // a strongly-1 stretched feature
		mx.SetContext(0, 4)
		p = mx.P()
		mx.Update(1)
	}
	if p < 2048 {
		t.Fatalf("mixer trained on a strong-1 feature and bit=1 should predict p>2048, got %d", p)
	}
}

func TestMixerTwoLayerCombinesContexts(t *testing.T) {
	mx := NewMixer(8, 4, 2)
	var p int
	for i := 0; i < 500; i++ {
		mx.Add(1500)
		mx.SetContext(0, 2)
		mx.Add(-1500)
		mx.SetContext(1, 2)
		p = mx.P()
		mx.Update(1)
	}
	if p < 2048 {
		t.Fatalf("two-context mixer trained toward bit=1 should predict p>2048, got %d", p)
	}
}
