package carver

import "testing"

func TestConstantYAlwaysReturnsValue(t *testing.T) {
	p := ConstantY(42)
	rnd := NewLegacy(1)
	for i := 0; i < 10; i++ {
		if got := p.Get(rnd, -64, 384); got != 42 {
			t.Errorf("ConstantY.Get() = %d, want 42", got)
		}
	}
}

func TestUniformYInRange(t *testing.T) {
	p := UniformY(10, 20)
	rnd := NewLegacy(2)
	for i := 0; i < 1000; i++ {
		v := p.Get(rnd, 0, 100)
		if v < 10 || v > 20 {
			t.Fatalf("UniformY(10,20).Get() = %d, want [10,20]", v)
		}
	}
}

func TestUniformYCollapsedSpanReturnsMin(t *testing.T) {
	p := UniformY(5, 5)
	rnd := NewLegacy(3)
	if got, want := p.Get(rnd, -64, 384), int32(-59); got != want {
		t.Errorf("UniformY(5,5).Get() = %d, want %d", got, want)
	}
}

func TestBiasedToBottomYSkewsLow(t *testing.T) {
	p := BiasedToBottomY(0)
	rnd := NewLegacy(4)
	const height = 384
	var sum int64
	const n = 5000
	for i := 0; i < n; i++ {
		sum += int64(p.Get(rnd, -64, height))
	}
	mean := float64(sum)/n + 64 // shift back into [0, height)
	if mean >= float64(height)/2 {
		t.Errorf("BiasedToBottomY mean offset = %v, want well under half of height (%v)", mean, float64(height)/2)
	}
}

func TestConstantFloatAlwaysReturnsValue(t *testing.T) {
	p := ConstantFloat(1.5)
	rnd := NewLegacy(5)
	if got := p.Get(rnd); got != 1.5 {
		t.Errorf("ConstantFloat.Get() = %v, want 1.5", got)
	}
}

func TestUniformFloatInRange(t *testing.T) {
	p := UniformFloat(0.75, 1.0)
	rnd := NewLegacy(6)
	for i := 0; i < 1000; i++ {
		v := p.Get(rnd)
		if v < 0.75 || v >= 1.0 {
			t.Fatalf("UniformFloat(0.75,1.0).Get() = %v, want [0.75,1.0)", v)
		}
	}
}
