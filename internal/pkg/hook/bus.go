package hook

import (
	"context"
	"fmt"
	"sync"
)

// Event names published by the checkout flow.
const (
	PaymentInit  = "payment.init"
	PaymentPay   = "payment.pay"
	LinePrice    = "line.price"
	ProductOrder = "product.order"
)

// HandlerFunc is invoked synchronously with the event payload. Handlers may
// mutate the payload; returning an error stops the remaining chain.
type HandlerFunc func(ctx context.Context, payload any) error

// Bus is a synchronous publish/subscribe hub. Handlers registered with Pre
// run before handlers registered with Post, each group in registration
// order. Named endpoints are single-handler request/response calls used by
// the subscription lifecycle.
type Bus struct {
	mu        sync.RWMutex
	pre       map[string][]HandlerFunc
	post      map[string][]HandlerFunc
	endpoints map[string]HandlerFunc
}

func NewBus() *Bus {
	return &Bus{
		pre:       make(map[string][]HandlerFunc),
		post:      make(map[string][]HandlerFunc),
		endpoints: make(map[string]HandlerFunc),
	}
}

// Pre registers a handler that runs before the post chain of event.
func (b *Bus) Pre(event string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pre[event] = append(b.pre[event], h)
}

// Post registers a handler that runs after the pre chain of event.
func (b *Bus) Post(event string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.post[event] = append(b.post[event], h)
}

// Hook runs the pre and post chains for event. The first handler error
// short-circuits the chain and is returned to the publisher.
func (b *Bus) Hook(ctx context.Context, event string, payload any) error {
	b.mu.RLock()
	chain := make([]HandlerFunc, 0, len(b.pre[event])+len(b.post[event]))
	chain = append(chain, b.pre[event]...)
	chain = append(chain, b.post[event]...)
	b.mu.RUnlock()

	for _, h := range chain {
		if err := h(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

// Endpoint registers a named handler. Registering the same name twice
// replaces the previous handler.
func (b *Bus) Endpoint(name string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endpoints[name] = h
}

// Call invokes a named endpoint.
func (b *Bus) Call(ctx context.Context, name string, payload any) error {
	b.mu.RLock()
	h, ok := b.endpoints[name]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("hook: no endpoint registered for %q", name)
	}
	return h(ctx, payload)
}

var defaultBus = NewBus()

// Default returns the process-wide bus used by controllers and daemons.
func Default() *Bus {
	return defaultBus
}
