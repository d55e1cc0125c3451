package monitoring

import (
	"errors"
	"testing"
	"time"
)

func TestSlowCallLogKeepsOnlySlowCalls(t *testing.T) {
	l := NewSlowCallLog(time.Second, 2)
	now := time.Now()
	l.Observe("edit", "fast", now, 10*time.Millisecond, false)
	l.Observe("edit", "a", now, 2*time.Second, false)
	l.Observe("edit", "b", now, 3*time.Second, true)
	l.Observe("edit", "c", now, 4*time.Second, false)

	recent := l.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Details != "b" || recent[1].Details != "c" {
		t.Fatalf("unexpected order %+v", recent)
	}
	if !recent[0].Failed {
		t.Fatalf("failure flag lost")
	}

	stats := l.Stats()
	if stats.Count != 2 || stats.MaxDuration != 4*time.Second || stats.AvgDuration != 3500*time.Millisecond {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.OperationCounts["edit"] != 2 {
		t.Fatalf("operation counts %+v", stats.OperationCounts)
	}
}

func TestSlowCallTrackReturnsError(t *testing.T) {
	l := NewSlowCallLog(time.Hour, 10)
	want := errors.New("boom")
	if err := l.Track("edit", "", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Track returned %v", err)
	}
	if len(l.Recent(5)) != 0 {
		t.Fatal("fast call should not be recorded")
	}
}
