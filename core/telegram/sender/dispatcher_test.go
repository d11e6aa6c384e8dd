package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})
	defer d.Close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 50; i++ {
		i := i
		if err := d.Enqueue(context.Background(), 42, "send.text", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	// Do on the same key returns only after the queued jobs ran.
	if err := d.Do(context.Background(), 42, "delete", "deleteMessage", func() error { return nil }); err != nil {
		t.Fatalf("do: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 50 {
		t.Fatalf("ran %d jobs, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job order broken at %d: %v", i, got)
		}
	}
}

func TestDispatcherDoReturnsRunError(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	defer d.Close()

	boom := errors.New("bad request (400)")
	err := d.Do(context.Background(), -100123, "send.text", "sendMessage", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if d.ErrorCount() != 1 || d.SentCount() != 0 {
		t.Fatalf("counters errs=%d sent=%d", d.ErrorCount(), d.SentCount())
	}
}

func TestDispatcherAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	if err := d.Enqueue(context.Background(), 1, "send.text", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close = %v", err)
	}
	ran := false
	if err := d.Do(context.Background(), 1, "send.text", "", func() error { ran = true; return nil }); err != nil {
		t.Fatalf("do after close: %v", err)
	}
	if !ran {
		t.Fatal("Do must fall back to inline execution once closed")
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), 7, "block", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	_ = d.Enqueue(context.Background(), 7, "fill", "", func() error { return nil })
	err := d.Enqueue(context.Background(), 7, "overflow", "", func() error { return nil })
	close(release)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": timeout`)
	if got := sanitizeErrorMessage(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("sanitized = %q", got)
	}
}

func TestClassifyErrorTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if kind := classifyError(ctx.Err()); kind != "timeout" {
		t.Fatalf("kind = %q", kind)
	}
	if kind := classifyError(errors.New("Bad Request (400)")); kind != "http_4xx" {
		t.Fatalf("kind = %q", kind)
	}
}
