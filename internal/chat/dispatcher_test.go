package chat

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

type recordedSend struct {
	to   string
	text string
	at   time.Time
}

type fakeSender struct {
	mu    sync.Mutex
	sends []recordedSend
	fail  int
	err   error
}

func (f *fakeSender) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return f.err
	}
	f.sends = append(f.sends, recordedSend{to: to, text: text, at: time.Now()})
	return nil
}

func (f *fakeSender) SendMedia(ctx context.Context, to string, _ Media, caption string) error {
	return f.SendText(ctx, to, caption)
}

func (f *fakeSender) recorded() []recordedSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedSend, len(f.sends))
	copy(out, f.sends)
	return out
}

func TestDispatcherPreservesOrderAndPacing(t *testing.T) {
	raw := &fakeSender{}
	interval := 20 * time.Millisecond
	d := NewDispatcher(raw, Options{QueueSize: 8, MinInterval: interval})

	ctx := context.Background()
	for _, text := range []string{"um", "dois", "tres"} {
		if err := d.SendText(ctx, "5592000000001", text); err != nil {
			t.Fatalf("SendText(%q): %v", text, err)
		}
	}
	d.Close()

	sends := raw.recorded()
	if len(sends) != 3 {
		t.Fatalf("sends = %d, want 3", len(sends))
	}
	want := []string{"um", "dois", "tres"}
	for i, s := range sends {
		if s.text != want[i] {
			t.Errorf("send[%d] = %q, want %q", i, s.text, want[i])
		}
	}
	if gap := sends[2].at.Sub(sends[0].at); gap < 2*interval-5*time.Millisecond {
		t.Errorf("three sends completed in %v, want at least ~%v of pacing", gap, 2*interval)
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	raw := &fakeSender{
		fail: 2,
		err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
	}
	d := NewDispatcher(raw, Options{QueueSize: 4, MaxRetries: 3, RetryBackoff: time.Millisecond})

	if err := d.SendText(context.Background(), "5592000000001", "oi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	d.Close()

	if got := len(raw.recorded()); got != 1 {
		t.Fatalf("delivered = %d, want 1 after retries", got)
	}
	if d.ErrorCount() != 0 {
		t.Errorf("ErrorCount() = %d, want 0", d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryPermanentFailures(t *testing.T) {
	raw := &fakeSender{
		fail: 1,
		err:  errors.New("chat is blocked"),
	}
	d := NewDispatcher(raw, Options{QueueSize: 4, MaxRetries: 3, RetryBackoff: time.Millisecond})

	if err := d.SendText(context.Background(), "5592000000001", "oi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	d.Close()

	if got := len(raw.recorded()); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
	if d.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherFallsBackAfterClose(t *testing.T) {
	raw := &fakeSender{}
	d := NewDispatcher(raw, Options{QueueSize: 4})
	d.Close()

	if err := d.SendText(context.Background(), "5592000000001", "tarde"); err != nil {
		t.Fatalf("SendText after close: %v", err)
	}
	if got := len(raw.recorded()); got != 1 {
		t.Fatalf("delivered = %d, want 1 via direct fallback", got)
	}
}

func TestShouldRetryClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"wrapped dial", errors.Join(errors.New("send"), &net.OpError{Op: "dial", Err: errors.New("refused")}), true},
		{"plain", errors.New("bad request"), false},
	}
	for _, tc := range cases {
		if got := shouldRetry(tc.err); got != tc.want {
			t.Errorf("%s: shouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}
