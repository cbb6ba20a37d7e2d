package cli

import (
	"strings"
	"testing"
	"time"
)

// fakeClock drives a ProgressWithETA deterministically.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedProgress(n int) (*ProgressWithETA, *fakeClock) {
	c := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p := NewProgressWithETA(n)
	p.now = c.now
	p.startTime, p.lastUpdate = c.t, c.t
	return p, c
}

func TestNewProgressWithETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(3)
	if p.ProgressState == nil || p.numCalculators != 3 {
		t.Fatalf("state = %+v", p.ProgressState)
	}
	if p.progressRate != 0 || p.startTime.IsZero() {
		t.Errorf("rate = %f, start = %v", p.progressRate, p.startTime)
	}
}

func TestUpdateWithETA(t *testing.T) {
	t.Parallel()
	p, clock := newClockedProgress(2)

	progress, eta := p.UpdateWithETA(0, 0.25)
	if progress != 0.125 || eta != 0 {
		t.Errorf("early update = %f, %v; want 0.125 and no estimate", progress, eta)
	}

	// One second in, half done: the first rate is progress/elapsed.
	clock.advance(time.Second)
	progress, eta = p.UpdateWithETA(1, 0.75)
	if progress != 0.5 {
		t.Fatalf("progress = %f, want 0.5", progress)
	}
	if eta != time.Second {
		t.Errorf("eta = %v, want 1s", eta)
	}

	// The next rate is smoothed: 0.7*0.5 + 0.3*(0.25/1s) = 0.425/s.
	clock.advance(time.Second)
	progress, eta = p.UpdateWithETA(0, 0.75)
	if progress != 0.75 {
		t.Fatalf("progress = %f, want 0.75", progress)
	}
	ratio := 0.25 / 0.425
	want := time.Duration(ratio * float64(time.Second))
	if d := eta - want; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("eta = %v, want about %v", eta, want)
	}
}

func TestGetETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(1)
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("initial ETA = %v, want 0", eta)
	}

	p.Update(0, 0.5)
	p.progressRate = 0.1
	if eta := p.GetETA(); eta != 5*time.Second {
		t.Errorf("ETA = %v, want 5s", eta)
	}

	p.Update(0, 1)
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("ETA when complete = %v, want 0", eta)
	}
}

func TestETACapping(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(1)
	p.Update(0, 0.001)
	p.progressRate = 0.0000001
	if eta := p.GetETA(); eta != maxETA {
		t.Errorf("ETA = %v, want %v", eta, maxETA)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		eta  time.Duration
		want string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{500 * time.Millisecond, "< 1s"},
		{time.Second, "1s"},
		{45 * time.Second, "45s"},
		{time.Minute, "1m"},
		{2*time.Minute + 30*time.Second, "2m30s"},
		{time.Hour, "1h"},
		{time.Hour + 15*time.Minute, "1h15m"},
		{3*time.Hour + 45*time.Minute, "3h45m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.eta); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.eta, got, tt.want)
		}
	}
}

func TestFormatProgressBarWithETA(t *testing.T) {
	t.Parallel()
	got := FormatProgressBarWithETA(0.5, 30*time.Second, 4)
	if want := " 50.00% [██░░] ETA: 30s"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := FormatProgressBarWithETA(0, 0, 2); !strings.HasSuffix(got, "ETA: calculating...") {
		t.Errorf("got %q", got)
	}
}

func TestProgressClamping(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(2)
	p.Update(0, 1.5)
	p.Update(1, -0.5)
	p.UpdateWithETA(5, 0.5)
	p.UpdateWithETA(-1, 0.5)
	if avg := p.CalculateAverage(); avg != 0.5 {
		t.Errorf("average = %f, want 0.5", avg)
	}
	if NewProgressState(0).CalculateAverage() != 0 {
		t.Error("empty state must average to 0")
	}
}
