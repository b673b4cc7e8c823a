package clock

import "testing"

func TestRealClockAdvances(t *testing.T) {
	r := Real{}
	a := r.Now()
	b := r.Now()
	if b < a {
		t.Fatalf("clock went backwards: %d then %d", a, b)
	}
}

func TestCalibratedClockStartsNonZero(t *testing.T) {
	c := New()
	defer c.Stop()
	if c.Now() == 0 {
		t.Fatalf("calibrated clock should start from a real timestamp")
	}
}
