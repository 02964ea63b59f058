package hook

import (
	"context"
	"errors"
	"testing"
)

func TestHookRunsPreBeforePost(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.Post("evt", func(ctx context.Context, payload any) error {
		order = append(order, "post-1")
		return nil
	})
	bus.Pre("evt", func(ctx context.Context, payload any) error {
		order = append(order, "pre-1")
		return nil
	})
	bus.Pre("evt", func(ctx context.Context, payload any) error {
		order = append(order, "pre-2")
		return nil
	})

	if err := bus.Hook(context.Background(), "evt", nil); err != nil {
		t.Fatalf("Hook returned error: %v", err)
	}

	want := []string{"pre-1", "pre-2", "post-1"}
	if len(order) != len(want) {
		t.Fatalf("handler order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("handler order = %v, want %v", order, want)
		}
	}
}

func TestHookShortCircuitsOnError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	ran := false

	bus.Pre("evt", func(ctx context.Context, payload any) error {
		return boom
	})
	bus.Post("evt", func(ctx context.Context, payload any) error {
		ran = true
		return nil
	})

	if err := bus.Hook(context.Background(), "evt", nil); !errors.Is(err, boom) {
		t.Fatalf("Hook error = %v, want %v", err, boom)
	}
	if ran {
		t.Fatalf("post handler ran after pre handler failed")
	}
}

func TestHookMutatesPayload(t *testing.T) {
	bus := NewBus()

	bus.Pre("evt", func(ctx context.Context, payload any) error {
		vals := payload.(*[]int)
		*vals = append(*vals, 1)
		return nil
	})
	bus.Post("evt", func(ctx context.Context, payload any) error {
		vals := payload.(*[]int)
		*vals = append(*vals, 2)
		return nil
	})

	var vals []int
	if err := bus.Hook(context.Background(), "evt", &vals); err != nil {
		t.Fatalf("Hook returned error: %v", err)
	}
	if len(vals) != 2 || vals[0] != 1 || vals[1] != 2 {
		t.Fatalf("payload after hooks = %v, want [1 2]", vals)
	}
}

func TestHookWithoutHandlersIsNoop(t *testing.T) {
	bus := NewBus()
	if err := bus.Hook(context.Background(), "nobody-listens", nil); err != nil {
		t.Fatalf("Hook returned error for event without handlers: %v", err)
	}
}

func TestCallUnknownEndpoint(t *testing.T) {
	bus := NewBus()
	if err := bus.Call(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected error calling unregistered endpoint")
	}
}

func TestEndpointReplacesPreviousHandler(t *testing.T) {
	bus := NewBus()
	got := ""

	bus.Endpoint("ep", func(ctx context.Context, payload any) error {
		got = "first"
		return nil
	})
	bus.Endpoint("ep", func(ctx context.Context, payload any) error {
		got = "second"
		return nil
	})

	if err := bus.Call(context.Background(), "ep", nil); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if got != "second" {
		t.Fatalf("endpoint handler = %q, want %q", got, "second")
	}
}
