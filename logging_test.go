package nbody

import "testing"

func TestDefaultLoggerDebugToggle(t *testing.T) {
	l := NewDefaultLogger("test", false)
	if l.DebugEnabled() {
		t.Fatalf("DebugEnabled() = true, want false")
	}
	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatalf("DebugEnabled() after SetDebug(true) = false, want true")
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	l := NewNopLogger()
	l.Infof("ignored %d", 1)
	l.Debugf("ignored %d", 2)
	l.Warnf("ignored %d", 3)
	l.Errorf("ignored %d", 4)
	if l.DebugEnabled() {
		t.Errorf("nopLogger.DebugEnabled() = true, want false")
	}
}
