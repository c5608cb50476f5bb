package envelope

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELPolicyOption configures the CEL policy.
type CELPolicyOption func(*celPolicy)

// CELWithProgramCache wires a ProgramCache into the CEL policy.
func CELWithProgramCache(cache ProgramCache) CELPolicyOption {
	return func(p *celPolicy) {
		p.cache = cache
	}
}

// CELWithHelpers wires a HelperRegistry into the CEL policy.
func CELWithHelpers(helpers *HelperRegistry) CELPolicyOption {
	return func(p *celPolicy) {
		if helpers == nil {
			return
		}
		p.helpers = helpers.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celPolicy struct {
	expression string
	cache      ProgramCache
	helpers    *HelperRegistry
}

// NewCELPolicy constructs a Policy backed by cel-go. The expression sees pkg,
// recorded, current, and missing bindings and must produce a bool.
func NewCELPolicy(expression string, opts ...CELPolicyOption) Policy {
	p := &celPolicy{expression: expression}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *celPolicy) Tolerate(ctx PolicyContext) (bool, error) {
	if p.expression == "" {
		return false, wrapPolicyError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := p.loadOrCompile()
	if err != nil {
		return false, wrapPolicyEvaluation("cel", p.expression, ctx.Package, err)
	}
	out, _, err := program.program.Eval(p.activation(ctx))
	if err != nil {
		return false, wrapPolicyEvaluation("cel", p.expression, ctx.Package, err)
	}
	return policyResultBool("cel", p.expression, ctx.Package, out.Value())
}

func (p *celPolicy) loadOrCompile() (*celProgram, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(p.expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := p.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(p.expression)
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
	if p.cache != nil {
		p.cache.Set(p.expression, bundle)
	}
	return bundle, nil
}

func (p *celPolicy) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("pkg", celgo.StringType),
		celgo.Variable("recorded", celgo.StringType),
		celgo.Variable("current", celgo.StringType),
		celgo.Variable("missing", celgo.BoolType),
	}
	if p.helpers != nil {
		const maxCallArity = 6
		overloads := make([]celgo.FunctionOpt, 0, maxCallArity)
		args := []*celgo.Type{celgo.StringType}
		for arity := 1; arity <= maxCallArity; arity++ {
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("call_dyn_%d", arity),
				append([]*celgo.Type(nil), args...),
				celgo.DynType,
				celgo.FunctionBinding(p.callBinding()),
			))
			args = append(args, celgo.DynType)
		}
		opts = append(opts, celgo.Function("call", overloads...))
	}
	return celgo.NewEnv(opts...)
}

func (p *celPolicy) activation(ctx PolicyContext) map[string]any {
	activation := map[string]any{
		"pkg":      ctx.Package,
		"recorded": ctx.Recorded,
		"current":  ctx.Current,
		"missing":  ctx.Missing,
	}
	if p.helpers != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return p.helpers.Call(name, arguments...)
		}
	}
	return activation
}

func (p *celPolicy) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if p.helpers == nil {
			return types.NewErr("envelope: helper registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("envelope: call requires helper name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("envelope: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := p.helpers.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
