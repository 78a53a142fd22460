package track

import (
	"testing"
	"time"
)

func TestReconnectPolicyDelays(t *testing.T) {
	p := NewReconnectPolicy(5, 2*time.Second, 10*time.Second)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		6 * time.Second,
		8 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		delay, ok := p.Next()
		if !ok {
			t.Fatalf("attempt %d: Next() ok = false, want true", i+1)
		}
		if delay != w {
			t.Errorf("attempt %d: delay = %v, want %v", i+1, delay, w)
		}
	}

	if _, ok := p.Next(); ok {
		t.Error("Next() ok = true after budget spent, want false")
	}
}

func TestReconnectPolicyCap(t *testing.T) {
	p := NewReconnectPolicy(10, 3*time.Second, 10*time.Second)

	var last time.Duration
	for i := 0; i < 10; i++ {
		delay, ok := p.Next()
		if !ok {
			t.Fatalf("attempt %d: budget exhausted early", i+1)
		}
		last = delay
		if delay > 10*time.Second {
			t.Errorf("attempt %d: delay = %v, exceeds cap", i+1, delay)
		}
	}
	if last != 10*time.Second {
		t.Errorf("final delay = %v, want cap 10s", last)
	}
}

func TestReconnectPolicyReset(t *testing.T) {
	p := NewReconnectPolicy(2, time.Second, 10*time.Second)

	p.Next()
	p.Next()
	if _, ok := p.Next(); ok {
		t.Fatal("Next() ok = true after budget spent")
	}

	p.Reset()
	if got := p.Attempt(); got != 0 {
		t.Errorf("Attempt after reset = %d, want 0", got)
	}
	delay, ok := p.Next()
	if !ok {
		t.Fatal("Next() ok = false after reset")
	}
	if delay != time.Second {
		t.Errorf("first delay after reset = %v, want 1s", delay)
	}
}
