package scope

import (
	"sync"

	"github.com/petermattis/goid"
)

// The primary goroutine operates on the single process-wide stack; every
// other goroutine gets a private stack seeded from the process stack's
// current layer the first time it touches the package. Which side of the
// split a call lands on is decided fresh on every call.

var (
	processMu    sync.Mutex
	processStack *Stack

	// goroutine id -> *Stack. Each entry is created, read, and deleted by
	// its owning goroutine only, so the stacks themselves need no lock.
	goroutineStacks sync.Map
)

// The runtime numbers the main goroutine 1.
const primaryGoroutineID = 1

func onPrimaryGoroutine() bool {
	return goid.Get() == primaryGoroutineID
}

func withProcessStack[R any](f func(*Stack) R) R {
	processMu.Lock()
	defer processMu.Unlock()
	if processStack == nil {
		processStack = newStack(StackProcess, Layer{})
	}
	return f(processStack)
}

// withStack routes f to the stack owned by the calling goroutine. All
// package-level operations funnel through here. f must not call back into
// package-level operations: on the primary goroutine it runs while the
// process stack's lock is held.
func withStack[R any](f func(*Stack) R) R {
	if onPrimaryGoroutine() {
		return withProcessStack(f)
	}
	return f(currentGoroutineStack())
}

func currentGoroutineStack() *Stack {
	id := goid.Get()
	if existing, ok := goroutineStacks.Load(id); ok {
		return existing.(*Stack)
	}
	seed := withProcessStack(func(stack *Stack) Layer {
		return Layer{client: stack.Client(), scope: stack.Scope().Clone()}
	})
	stack := newStack(StackGoroutine, seed)
	goroutineStacks.Store(id, stack)
	return stack
}

// Detach discards the calling goroutine's private stack, if one was ever
// created. Goroutines that touch the scope engine should call it (or be
// spawned through Go) before exiting, since the runtime offers no exit hook
// to do it automatically. On the primary goroutine Detach is a no-op.
func Detach() {
	goroutineStacks.Delete(goid.Get())
}

// Go runs f on a new goroutine and detaches its private stack when f
// returns, keeping the goroutine registry bounded by the number of live
// goroutines.
func Go(f func()) {
	go func() {
		defer Detach()
		f()
	}()
}
