package scope

import (
	"fmt"

	"github.com/google/uuid"
)

// StackType distinguishes the process-wide stack from the per-goroutine
// stacks seeded from it.
type StackType int

const (
	// StackProcess is the single process-wide stack used by the primary
	// goroutine.
	StackProcess StackType = iota
	// StackGoroutine marks a stack private to one non-primary goroutine.
	StackGoroutine
)

func (t StackType) String() string {
	switch t {
	case StackProcess:
		return "process"
	case StackGoroutine:
		return "goroutine"
	default:
		return "unknown"
	}
}

// Layer pairs an optionally bound client with one owned Scope. Pushing
// duplicates the current layer: the client reference is shared, the scope is
// cloned so mutations below the push never reach the layers above it.
type Layer struct {
	client Client
	scope  Scope
}

// Client returns the layer's bound client, or nil when unbound.
func (l *Layer) Client() Client {
	return l.client
}

// Scope returns a mutable handle to the layer's scope.
func (l *Layer) Scope() *Scope {
	return &l.scope
}

func (l Layer) clone() Layer {
	return Layer{client: l.client, scope: l.scope.Clone()}
}

// LayerToken fingerprints a stack instance together with its depth at
// capture time. Guards use it to verify that a release still targets the
// stack state it was issued against. Stacks are identified by an id assigned
// at creation, never by address.
type LayerToken struct {
	stackID uuid.UUID
	depth   int
}

// Stack is a non-empty ordered sequence of layers; the last layer is
// current. Stacks are not safe for concurrent use on their own: the process
// stack is serialized by the routing layer's lock and goroutine stacks are
// only ever touched by their owning goroutine.
type Stack struct {
	id     uuid.UUID
	layers []Layer
	typ    StackType
}

func newStack(typ StackType, base Layer) *Stack {
	return &Stack{
		id:     uuid.New(),
		layers: []Layer{base},
		typ:    typ,
	}
}

// Type returns the stack's kind.
func (s *Stack) Type() StackType {
	return s.typ
}

// Depth returns the number of layers on the stack, always at least 1.
func (s *Stack) Depth() int {
	return len(s.layers)
}

// Push duplicates the current layer and makes the duplicate current. The
// bound client carries over by reference; the scope is cloned so the two
// layers mutate independently.
func (s *Stack) Push() {
	s.layers = append(s.layers, s.layers[len(s.layers)-1].clone())
}

// Pop removes the current layer. Removing the last remaining layer is a
// usage violation and panics; a stack never shrinks below one layer.
func (s *Stack) Pop() {
	if len(s.layers) <= 1 {
		panic(fmt.Sprintf("scope: pop from empty %s stack", s.typ))
	}
	s.layers = s.layers[:len(s.layers)-1]
}

// BindClient replaces the client on the current layer only. Layers pushed
// earlier keep whatever client they carried at push time.
func (s *Stack) BindClient(client Client) {
	s.layers[len(s.layers)-1].client = client
}

// Client returns the current layer's bound client, or nil when unbound.
func (s *Stack) Client() Client {
	return s.layers[len(s.layers)-1].client
}

// Scope returns a mutable handle to the current layer's scope.
func (s *Stack) Scope() *Scope {
	return s.layers[len(s.layers)-1].Scope()
}

// Token captures the stack's identity and current depth.
func (s *Stack) Token() LayerToken {
	return LayerToken{stackID: s.id, depth: len(s.layers)}
}
