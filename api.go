package scope

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-scope/pkg/activity"
)

// Option configures package-level behaviour through Init.
type Option func(*config)

type config struct {
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	ruleExpr  string
	rule      CompiledRule
	hooks     activity.Hooks
	channel   string
	emitter   *activity.Emitter
}

var (
	cfgMu  sync.RWMutex
	pkgCfg config
)

// WithEvaluator selects the engine used to compile the breadcrumb rule.
// Defaults to the expr engine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a cache for compiled rule programs.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes custom functions to the rule engines.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the rule engines.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.registry == nil {
			cfg.registry = NewFunctionRegistry()
		}
		_ = cfg.registry.Register(name, fn)
	}
}

// WithEvaluatorLogger records breadcrumb rule evaluations.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithBreadcrumbRule installs a rule expression deciding, per crumb, whether
// AddBreadcrumb records it. The expression sees crumb, tags, extra, user,
// now, and metadata bindings and must yield a bool; evaluation failures are
// logged and the crumb is kept.
func WithBreadcrumbRule(expr string) Option {
	return func(cfg *config) {
		cfg.ruleExpr = expr
	}
}

// WithActivityHooks attaches hooks notified on stack and breadcrumb
// activity. Hooks run outside the stack's critical section.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *config) {
		cfg.hooks = hooks
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.channel = channel
	}
}

// Init installs the package configuration, compiling the breadcrumb rule
// when one is set. Calling Init with no options resets to defaults: no rule,
// no hooks, expr engine. Init is safe to call concurrently with scope
// operations; in-flight operations finish under the configuration they
// started with.
func Init(opts ...Option) error {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ruleExpr != "" {
		rule, err := cfg.resolveEvaluator().Compile(cfg.ruleExpr)
		if err != nil {
			return wrapEvaluatorError(evaluatorEngineName(cfg.evaluator), err)
		}
		cfg.rule = rule
	}
	cfg.emitter = activity.NewEmitter(cfg.hooks, activity.Config{
		Enabled: len(cfg.hooks) > 0,
		Channel: cfg.channel,
	})
	cfgMu.Lock()
	pkgCfg = cfg
	cfgMu.Unlock()
	return nil
}

func (c *config) resolveEvaluator() Evaluator {
	if c.evaluator != nil {
		return c.evaluator
	}
	var exprOpts []ExprEvaluatorOption
	if c.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(c.cache))
	}
	if c.registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(c.registry))
	}
	c.evaluator = NewExprEvaluator(exprOpts...)
	return c.evaluator
}

func (c config) evaluatorLogger() EvaluatorLogger {
	if c.logger != nil {
		return c.logger
	}
	return noopEvaluatorLogger{}
}

func currentConfig() config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return pkgCfg
}

// ConfigureScope hands the routed current layer's scope to f for in-place
// mutation. f must not call back into package-level scope operations.
func ConfigureScope(f func(*Scope)) {
	if f == nil {
		return
	}
	withStack(func(stack *Stack) struct{} {
		f(stack.Scope())
		return struct{}{}
	})
}

// ClearScope resets the routed current layer's scope to empty.
func ClearScope() {
	ConfigureScope(func(s *Scope) {
		s.Clear()
	})
}

// BindClient binds client to the routed stack's current layer. Layers
// pushed earlier keep their previous client until popped back to.
func BindClient(client Client) {
	cfg := currentConfig()
	var event *activity.Event
	withStack(func(stack *Stack) struct{} {
		stack.BindClient(client)
		event = cfg.stackEvent(verbBindClient, stack)
		return struct{}{}
	})
	cfg.emit(event)
}

// CurrentClient returns the client bound to the routed stack's current
// layer, or nil when unbound.
func CurrentClient() Client {
	return withStack(func(stack *Stack) Client {
		return stack.Client()
	})
}

// WithClientAndScope routes to the calling goroutine's stack and invokes f
// with the bound client and a mutable handle to the current scope. When no
// client is bound it returns def without invoking f. This is the bridge the
// reporting client uses to read the scope while assembling an event.
func WithClientAndScope[R any](def R, f func(Client, *Scope) R) R {
	return withStack(func(stack *Stack) R {
		client := stack.Client()
		if client == nil {
			return def
		}
		return f(client, stack.Scope())
	})
}

// AddBreadcrumb records crumb on the routed current scope. The crumb is
// dropped when no client is bound, when the bound client is disabled, or
// when the configured breadcrumb rule rejects it; otherwise the trail is
// trimmed to the client's MaxBreadcrumbs. When a rule is configured it runs
// against a scope snapshot taken in a first short critical section; engine
// execution never happens while the stack is held.
func AddBreadcrumb(crumb Breadcrumb) {
	cfg := currentConfig()
	normalized := NormalizeBreadcrumb(crumb)
	if cfg.rule != nil {
		ctx := withStack(func(stack *Stack) *FilterContext {
			client := stack.Client()
			if client == nil || !client.Enabled() {
				return nil
			}
			s := stack.Scope()
			return &FilterContext{
				Crumb: normalized,
				Tags:  s.Tags(),
				Extra: s.Extra(),
				User:  s.User(),
			}
		})
		if ctx == nil {
			return
		}
		if !cfg.allowCrumb(*ctx) {
			return
		}
	}
	var event *activity.Event
	WithClientAndScope(false, func(client Client, s *Scope) bool {
		if !client.Enabled() {
			return false
		}
		s.recordBreadcrumb(normalized, client.MaxBreadcrumbs())
		event = cfg.crumbEvent(normalized, s)
		return true
	})
	cfg.emit(event)
}

func (c config) allowCrumb(ctx FilterContext) bool {
	if c.rule == nil {
		return true
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(c.evaluator)
	start := time.Now()
	value, err := c.rule.Evaluate(ctx)
	var keep bool
	if err == nil {
		keep, err = ruleVerdict(value)
	}
	duration := time.Since(start)
	err = wrapEvaluationError(engine, c.ruleExpr, ctx.Crumb.Category, err)
	c.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     c.ruleExpr,
		Crumb:    ctx.Crumb.Category,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		// A broken rule must not lose context data.
		return true
	}
	return keep
}

const (
	verbPush       = "scope.push"
	verbPop        = "scope.pop"
	verbBindClient = "scope.bind_client"
	verbBreadcrumb = "scope.breadcrumb"
)

func (c config) stackEvent(verb string, stack *Stack) *activity.Event {
	if !c.emitter.Enabled() {
		return nil
	}
	event := activity.Event{
		Verb:       verb,
		ObjectType: "scope_stack",
		ObjectID:   stack.id.String(),
		StackType:  stack.Type().String(),
		Depth:      stack.Depth(),
	}
	if user := stack.Scope().User(); user != nil {
		event.UserID = user.ID
	}
	return &event
}

func (c config) crumbEvent(crumb Breadcrumb, s *Scope) *activity.Event {
	if !c.emitter.Enabled() {
		return nil
	}
	event := activity.Event{
		Verb:       verbBreadcrumb,
		ObjectType: "breadcrumb",
		ObjectID:   crumb.EventID.String(),
		Metadata: map[string]any{
			"type":     crumb.Type,
			"category": crumb.Category,
			"level":    string(crumb.Level),
		},
	}
	if user := s.User(); user != nil {
		event.UserID = user.ID
	}
	return &event
}

func (c config) emit(event *activity.Event) {
	if event == nil {
		return
	}
	_ = c.emitter.Emit(context.Background(), *event)
}
