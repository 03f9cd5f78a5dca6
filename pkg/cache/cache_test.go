package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if h != Hash([]byte("hello")) {
		t.Error("Hash() is not deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("Hash() collides on different input")
	}
	if len(h) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	l1 := k.LayoutKey("abc", LayoutKeyOpts{Pattern: "scarf"})
	l2 := k.LayoutKey("abc", LayoutKeyOpts{Pattern: "hat"})
	if !strings.HasPrefix(l1, "layout:") {
		t.Errorf("LayoutKey() = %q, want layout: prefix", l1)
	}
	if l1 == l2 {
		t.Error("LayoutKey() ignores the pattern")
	}
	if l1 != k.LayoutKey("abc", LayoutKeyOpts{Pattern: "scarf"}) {
		t.Error("LayoutKey() is not deterministic")
	}

	tests := []struct {
		name string
		a, b RenderKeyOpts
	}{
		{"format", RenderKeyOpts{Format: "svg"}, RenderKeyOpts{Format: "png"}},
		{"zoom", RenderKeyOpts{Format: "svg", Zoom: 10}, RenderKeyOpts{Format: "svg", Zoom: 20}},
		{"connections", RenderKeyOpts{Format: "svg"}, RenderKeyOpts{Format: "svg", Connections: true}},
		{"style", RenderKeyOpts{Format: "svg", Style: "plain"}, RenderKeyOpts{Format: "svg", Style: "simple"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := k.RenderKey("abc", tt.a), k.RenderKey("abc", tt.b)
			if a == b {
				t.Errorf("RenderKey() = %q for both options", a)
			}
			if !strings.HasPrefix(a, "render:") {
				t.Errorf("RenderKey() = %q, want render: prefix", a)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(nil, "team:")

	opts := LayoutKeyOpts{Pattern: "1"}
	if got, want := scoped.LayoutKey("h", opts), "team:"+inner.LayoutKey("h", opts); got != want {
		t.Errorf("LayoutKey() = %q, want %q", got, want)
	}
	ropts := RenderKeyOpts{Format: "svg"}
	if got, want := scoped.RenderKey("h", ropts), "team:"+inner.RenderKey("h", ropts); got != want {
		t.Errorf("RenderKey() = %q, want %q", got, want)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	base := errors.New("connection reset")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false for wrapped error")
	}
	if !errors.Is(err, base) {
		t.Error("Retryable() does not unwrap")
	}
	if err.Error() != base.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), base.Error())
	}
	if IsRetryable(base) {
		t.Error("IsRetryable() = true for plain error")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	final := errors.New("final")
	transient := Retryable(errors.New("transient"))

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success", []error{nil}, 1, nil},
		{"final error stops", []error{final}, 1, final},
		{"retry then success", []error{transient, nil}, 2, nil},
		{"exhausted", []error{transient, transient, transient}, 3, transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func() error {
		return Retryable(errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
