package fibonacci

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestProgressSubject(t *testing.T) {
	t.Parallel()
	subject := NewProgressSubject()
	a, b := &recordingObserver{}, &recordingObserver{}

	subject.Register(a)
	subject.Register(b)
	subject.Register(nil)
	if subject.ObserverCount() != 2 {
		t.Fatalf("ObserverCount() = %d, want 2", subject.ObserverCount())
	}

	subject.Notify(1, 0.5)
	subject.Unregister(a)
	subject.AsProgressReporter(2)(0.75)

	if got := a.snapshot(); len(got) != 1 || got[0].Value != 0.5 {
		t.Errorf("a received %v", got)
	}
	if got := b.snapshot(); len(got) != 2 || got[1].CalculatorIndex != 2 || got[1].Value != 0.75 {
		t.Errorf("b received %v", got)
	}
}

func TestChannelObserver(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 1)
	o := NewChannelObserver(ch)

	o.Update(0, 1.5)
	// The channel is full: this update is dropped instead of blocking.
	o.Update(0, 0.2)

	u := <-ch
	if u.Value != 1.0 {
		t.Errorf("value = %f, want clamped 1.0", u.Value)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected update %v", extra)
	default:
	}

	NewChannelObserver(nil).Update(0, 0.5)
}

func TestLoggingObserver(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLoggingObserver(logger, 0.25)

	for _, p := range []float64{0.1, 0.2, 0.3, 0.4, 0.9, 1.0} {
		o.Update(4, p)
	}
	lines := strings.Count(buf.String(), "calculation progress")
	// 0.1 (first), 0.4 (+0.3), 0.9 (+0.5), 1.0 (completion).
	if lines != 4 {
		t.Errorf("logged %d lines, want 4:\n%s", lines, buf.String())
	}
	if !strings.Contains(buf.String(), `"calculator":4`) {
		t.Errorf("log lines miss the calculator index:\n%s", buf.String())
	}
}
