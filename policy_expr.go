package envelope

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprPolicyOption configures an expr policy instance.
type ExprPolicyOption func(*exprPolicy)

// ExprWithProgramCache wires a ProgramCache into the expr policy.
func ExprWithProgramCache(cache ProgramCache) ExprPolicyOption {
	return func(p *exprPolicy) {
		p.cache = cache
	}
}

// ExprWithHelpers wires a HelperRegistry into the expr policy.
func ExprWithHelpers(helpers *HelperRegistry) ExprPolicyOption {
	return func(p *exprPolicy) {
		if helpers == nil {
			return
		}
		p.helpers = helpers.Clone()
	}
}

// exprPolicy evaluates tolerance rules using github.com/expr-lang/expr. The
// expression sees pkg, recorded, current, and missing bindings and must
// produce a bool.
type exprPolicy struct {
	expression string
	cache      ProgramCache
	helpers    *HelperRegistry
}

// NewExprPolicy constructs a Policy backed by expr-lang/expr.
func NewExprPolicy(expression string, opts ...ExprPolicyOption) Policy {
	p := &exprPolicy{expression: expression}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *exprPolicy) Tolerate(ctx PolicyContext) (bool, error) {
	if p.expression == "" {
		return false, wrapPolicyError("expr", fmt.Errorf("expression must not be empty"))
	}
	env := p.environment(ctx)
	if p.cache == nil {
		result, err := exprlang.Eval(p.expression, env)
		if err != nil {
			return false, wrapPolicyEvaluation("expr", p.expression, ctx.Package, err)
		}
		return policyResultBool("expr", p.expression, ctx.Package, result)
	}
	program, err := p.loadOrCompile()
	if err != nil {
		return false, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return false, wrapPolicyEvaluation("expr", p.expression, ctx.Package, err)
	}
	return policyResultBool("expr", p.expression, ctx.Package, result)
}

func (p *exprPolicy) loadOrCompile() (*exprvm.Program, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(p.expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range p.helperNames() {
		fn := p.helperFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(p.expression, options...)
	if err != nil {
		return nil, wrapPolicyEvaluation("expr", p.expression, "", err)
	}
	if p.cache != nil {
		p.cache.Set(p.expression, program)
	}
	return program, nil
}

func (p *exprPolicy) environment(ctx PolicyContext) map[string]any {
	env := map[string]any{
		"pkg":      ctx.Package,
		"recorded": ctx.Recorded,
		"current":  ctx.Current,
		"missing":  ctx.Missing,
	}
	if p.helpers != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return p.helpers.Call(name, arguments...)
		}
		for _, name := range p.helpers.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return p.helpers.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (p *exprPolicy) helperNames() []string {
	if p == nil || p.helpers == nil {
		return nil
	}
	return p.helpers.Names()
}

func (p *exprPolicy) helperFunction(name string) func(...any) (any, error) {
	if p == nil || p.helpers == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return p.helpers.Call(name, arguments...)
	}
}
