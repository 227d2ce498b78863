package scope

import (
	"fmt"
	"time"
)

// FilterContext carries the inputs a breadcrumb rule is evaluated against:
// the candidate crumb plus a read-only view of the current scope.
type FilterContext struct {
	Crumb    Breadcrumb
	Tags     map[string]string
	Extra    map[string]any
	User     *User
	Now      *time.Time
	Metadata map[string]any
}

func (ctx FilterContext) withDefaultNow() FilterContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx FilterContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx FilterContext) withDefaultMaps() FilterContext {
	if ctx.Tags == nil {
		ctx.Tags = map[string]string{}
	}
	if ctx.Extra == nil {
		ctx.Extra = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx FilterContext) crumbBinding() map[string]any {
	crumb := ctx.Crumb
	return map[string]any{
		"event_id":  crumb.EventID.String(),
		"type":      crumb.Type,
		"category":  crumb.Category,
		"message":   crumb.Message,
		"level":     string(crumb.Level),
		"data":      cloneMap(crumb.Data),
		"timestamp": crumb.Timestamp,
	}
}

func (ctx FilterContext) userBinding() map[string]any {
	if ctx.User == nil {
		return nil
	}
	return map[string]any{
		"id":         ctx.User.ID,
		"username":   ctx.User.Username,
		"email":      ctx.User.Email,
		"ip_address": ctx.User.IPAddress,
	}
}

// Evaluator executes breadcrumb rule expressions against a filter context.
type Evaluator interface {
	Evaluate(ctx FilterContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable rule program.
type CompiledRule interface {
	Evaluate(ctx FilterContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// ProgramCache stores compiled rule programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// ruleVerdict coerces a rule result into keep/drop. Anything other than a
// bool is a rule bug and reported as an error so the caller can fail open.
func ruleVerdict(value any) (bool, error) {
	keep, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("scope: breadcrumb rule returned %T, want bool", value)
	}
	return keep, nil
}

// engineNamer is implemented by the built-in evaluators; external ones
// report as "custom".
type engineNamer interface {
	engineName() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engineName()
	}
	return "custom"
}
