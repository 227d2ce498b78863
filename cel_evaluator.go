package scope

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) engineName() string { return "cel" }

func (e *celEvaluator) Evaluate(ctx FilterContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("crumb", celgo.DynType),
		celgo.Variable("tags", celgo.DynType),
		celgo.Variable("extra", celgo.DynType),
		celgo.Variable("user", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.registry != nil {
		// CEL overload declarations are fixed-arity, so the registry bridge
		// declares one overload per supported argument count.
		binding := celgo.FunctionBinding(e.callBinding())
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType}, celgo.DynType, binding),
			celgo.Overload("call_string_dyn_dyn_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType, celgo.DynType}, celgo.DynType, binding),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx FilterContext) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"crumb":    ctx.crumbBinding(),
		"tags":     ctx.Tags,
		"extra":    ctx.Extra,
		"metadata": ctx.Metadata,
	}
	if user := ctx.userBinding(); user != nil {
		activation["user"] = user
	} else {
		activation["user"] = map[string]any{}
	}
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx FilterContext) (any, error) {
	if r.evaluator == nil {
		return nil, fmt.Errorf("cel compiled rule missing evaluator")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := r.evaluator.loadOrCompile(r.expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.evaluator.activation(ctx))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celEvaluator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("scope: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("scope: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("scope: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
