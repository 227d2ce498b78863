package scope

import (
	"testing"
)

func TestCELEvaluatorEvaluatesCrumbBinding(t *testing.T) {
	evaluator := NewCELEvaluator()
	ctx := FilterContext{
		Crumb: Breadcrumb{Category: "http", Level: LevelInfo},
		Tags:  map[string]string{"env": "prod"},
	}

	result, err := evaluator.Evaluate(ctx, `crumb.category == "http" && tags["env"] == "prod"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEvaluatorMissingUserIsEmptyMap(t *testing.T) {
	evaluator := NewCELEvaluator()

	result, err := evaluator.Evaluate(FilterContext{Crumb: Breadcrumb{Category: "auth"}}, `size(user) == 0`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEvaluatorEmptyExpression(t *testing.T) {
	evaluator := NewCELEvaluator()
	if _, err := evaluator.Evaluate(FilterContext{}, ""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
	if _, err := evaluator.Compile(""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestCELEvaluatorCompiledRuleUsesCache(t *testing.T) {
	cache := &mapCache{}
	evaluator := NewCELEvaluator(CELWithProgramCache(cache))

	rule, err := evaluator.Compile(`crumb.level != "debug"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	result, err := rule.Evaluate(FilterContext{Crumb: Breadcrumb{Level: LevelInfo}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}

	if _, err := rule.Evaluate(FilterContext{Crumb: Breadcrumb{Level: LevelDebug}}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if cache.hits == 0 {
		t.Fatalf("expected repeated evaluation to hit the program cache")
	}
}

func TestCELEvaluatorCallUnknownFunctionErrors(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		value, _ := args[0].(int64)
		return value * 2, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	evaluator := NewCELEvaluator(CELWithFunctionRegistry(registry))
	if _, err := evaluator.Evaluate(FilterContext{}, `call("missing")`); err == nil {
		t.Fatalf("expected error for unregistered function")
	}
}

func TestCELEvaluatorCallFunction(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		value, _ := args[0].(int64)
		return value * 2, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	evaluator := NewCELEvaluator(CELWithFunctionRegistry(registry))
	result, err := evaluator.Evaluate(FilterContext{}, `call("double", 21) == 42`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}
