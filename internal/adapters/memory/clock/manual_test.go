package clock

import (
	"testing"
	"time"

	clockport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/clock"
)

var _ clockport.Clock = (*ManualClock)(nil)

func TestManualClock_Advance(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	c := NewManualClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("Now()=%v, want %v", c.Now(), start)
	}
	got := c.Advance(1500 * time.Millisecond)
	if got.Sub(start) != 1500*time.Millisecond || !c.Now().Equal(got) {
		t.Fatalf("Advance() returned %v, Now()=%v", got, c.Now())
	}
}
