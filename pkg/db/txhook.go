package db

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

func (h *commitHooks) add(fn func(context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

func withCommitHooks(ctx context.Context, hooks *commitHooks) context.Context {
	return context.WithValue(ctx, commitHooksKey{}, hooks)
}

// AfterCommit registers fn to run exactly once after the surrounding WithTx
// transaction commits. A rollback discards the registration. Outside any
// transaction fn runs immediately; callers treat both cases as "after the
// write is durable".
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if fn == nil {
		return
	}
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.add(fn)
		return
	}
	fn(ctx)
}
