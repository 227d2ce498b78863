package scope

import "github.com/goliatone/go-scope/pkg/activity"

// ScopeGuard undoes exactly one push. It is returned by PushScope holding a
// token that fingerprints the routed stack and its depth at push time;
// Release verifies the fingerprint still matches before popping, so a guard
// released out of LIFO order, or from a goroutine other than the one that
// pushed, fails loudly instead of popping someone else's layer.
type ScopeGuard struct {
	token *LayerToken
}

// Release pops the layer the guard created. The token is consumed on the
// first call; further calls are no-ops. Release panics when the routed
// stack's identity or depth no longer matches the guard's token.
func (g *ScopeGuard) Release() {
	if g == nil || g.token == nil {
		return
	}
	token := *g.token
	g.token = nil
	cfg := currentConfig()
	var event *activity.Event
	withStack(func(stack *Stack) struct{} {
		if stack.Token() != token {
			panic("scope: current active stack does not match scope guard")
		}
		stack.Pop()
		event = cfg.stackEvent(verbPop, stack)
		return struct{}{}
	})
	cfg.emit(event)
}

// PushScope pushes a new layer onto the routed stack and returns the guard
// that pops it. The new layer inherits the current layer's client by
// reference and its scope by clone; mutations on the new layer stay
// invisible to the layers beneath until the guard is released.
//
//	guard := scope.PushScope()
//	defer guard.Release()
//	scope.ConfigureScope(func(s *scope.Scope) {
//		s.SetTag("task", "import")
//	})
func PushScope() *ScopeGuard {
	cfg := currentConfig()
	var event *activity.Event
	token := withStack(func(stack *Stack) LayerToken {
		stack.Push()
		event = cfg.stackEvent(verbPush, stack)
		return stack.Token()
	})
	cfg.emit(event)
	return &ScopeGuard{token: &token}
}

// WithScope pushes a layer, runs f against the new layer's scope, and
// releases the layer on all exit paths, including a panic in f.
func WithScope(f func(*Scope)) {
	guard := PushScope()
	defer guard.Release()
	ConfigureScope(f)
}
