package capture

import (
	"strings"
	"testing"
)

func TestSyntheticGrab(t *testing.T) {
	s := NewSynthetic(640, 480)

	first, ok := s.Grab()
	if !ok {
		t.Fatal("Grab ok = false, want true")
	}
	if !strings.HasPrefix(string(first), "data:image/jpeg;base64,") {
		t.Errorf("frame = %q, want a data URL", first)
	}

	second, _ := s.Grab()
	if string(first) == string(second) {
		t.Error("consecutive frames identical, want distinct payloads")
	}
	if got := s.Frames(); got != 2 {
		t.Errorf("Frames = %d, want 2", got)
	}
}

func TestSyntheticDefaults(t *testing.T) {
	s := NewSynthetic(0, -1)
	frame, ok := s.Grab()
	if !ok || len(frame) == 0 {
		t.Fatal("Grab with default dimensions failed")
	}
}

func TestFuncSource(t *testing.T) {
	calls := 0
	f := Func(func() ([]byte, bool) {
		calls++
		return []byte("x"), true
	})
	payload, ok := f.Grab()
	if !ok || string(payload) != "x" {
		t.Errorf("Grab = %q,%v, want x,true", payload, ok)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
