package engine

import "testing"

func TestPanGainsEqualPower(t *testing.T) {
	for _, pan := range []float32{-1, -0.5, 0, 0.3, 1} {
		gL, gR := panGains(pan)
		sum := float64(gL)*float64(gL) + float64(gR)*float64(gR)
		if diff := sum - 1.0; diff < -1e-5 || diff > 1e-5 {
			t.Fatalf("pan=%v: gL^2+gR^2 = %v, want 1", pan, sum)
		}
	}
}

func TestPanGainsBoundaries(t *testing.T) {
	gL, gR := panGains(-1)
	if gR != 0 {
		t.Fatalf("pan=-1: gR = %v, want 0 exactly", gR)
	}
	_ = gL

	gL, gR = panGains(1)
	if gL != 0 {
		t.Fatalf("pan=+1: gL = %v, want 0 exactly", gL)
	}
	_ = gR
}

func TestPanGainsCenter(t *testing.T) {
	gL, gR := panGains(0)
	want := float32(0.70710677) // sqrt(2)/2
	if absF(gL-want) > 1e-5 || absF(gR-want) > 1e-5 {
		t.Fatalf("pan=0: (gL,gR) = (%v,%v), want (%v,%v)", gL, gR, want, want)
	}
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
