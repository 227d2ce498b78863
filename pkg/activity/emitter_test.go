package activity

import (
	"context"
	"testing"
)

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), Event{
		Verb:       "scope.push",
		ObjectType: "scope_stack",
		ObjectID:   "id-1",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	events := capture.Captured()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Channel != "scope" {
		t.Fatalf("expected default channel scope, got %q", events[0].Channel)
	}
}

func TestEmitterKeepsExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "audit"})

	_ = emitter.Emit(context.Background(), Event{
		Verb:       "scope.pop",
		ObjectType: "scope_stack",
		ObjectID:   "id-1",
		Channel:    "override",
	})

	events := capture.Captured()
	if len(events) != 1 || events[0].Channel != "override" {
		t.Fatalf("expected explicit channel preserved, got %+v", events)
	}
}

func TestEmitterDisabledWithoutHooks(t *testing.T) {
	emitter := NewEmitter(nil, Config{Enabled: true})
	if emitter.Enabled() {
		t.Fatalf("emitter with no hooks must be disabled")
	}

	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("nil emitter must be disabled")
	}
	if err := nilEmitter.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("nil emitter emit must be a no-op, got %v", err)
	}
}

func TestEmitterDropsNilHooks(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{nil, capture, nil}, Config{Enabled: true})

	_ = emitter.Emit(context.Background(), Event{
		Verb:       "scope.push",
		ObjectType: "scope_stack",
		ObjectID:   "id-1",
	})

	if len(capture.Captured()) != 1 {
		t.Fatalf("expected surviving hook notified, got %d", len(capture.Captured()))
	}
}
