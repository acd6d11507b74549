// Package hooking lets observers attach to the construction of a topology.
package hooking

import "slices"

// HookPos names a point in a construction step where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx describes one invocation: who raised it, at which position, the
// item that was produced, and optional extra detail.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by everything that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable. Embed it and call InvokeHook.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns a copy of the registered hooks in registration order.
func (h *HookableBase) Hooks() []Hook {
	return slices.Clone(h.hooks)
}

// AcceptHook registers a hook. Registering the same hook value twice panics;
// function hooks cannot be compared and are always accepted.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); !isFunc && slices.Contains(h.hooks, hook) {
		panic("duplicated hook")
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls every registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
