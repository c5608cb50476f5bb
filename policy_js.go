//go:build js_policy

package envelope

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsPolicy struct {
	expression string
	cache      ProgramCache
	helpers    *HelperRegistry
}

// NewJSPolicy constructs a Policy backed by goja. The expression sees pkg,
// recorded, current, and missing bindings and must produce a bool.
func NewJSPolicy(expression string, opts ...JSPolicyOption) Policy {
	cfg := applyJSPolicyOptions(opts)
	return &jsPolicy{
		expression: expression,
		cache:      cfg.cache,
		helpers:    cfg.helpers,
	}
}

func (p *jsPolicy) Tolerate(ctx PolicyContext) (bool, error) {
	if p.expression == "" {
		return false, wrapPolicyError("js", fmt.Errorf("expression must not be empty"))
	}
	if p.cache == nil {
		return p.run(ctx, nil)
	}
	program, err := p.loadOrCompile()
	if err != nil {
		return false, err
	}
	return p.run(ctx, program)
}

func (p *jsPolicy) loadOrCompile() (*goja.Program, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(p.expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", p.wrapExpression(), false)
	if err != nil {
		return nil, wrapPolicyEvaluation("js", p.expression, "", err)
	}
	if p.cache != nil {
		p.cache.Set(p.expression, program)
	}
	return program, nil
}

func (p *jsPolicy) run(ctx PolicyContext, program *goja.Program) (bool, error) {
	vm := goja.New()
	p.injectContext(vm, ctx)
	var value goja.Value
	var err error
	if program != nil {
		value, err = vm.RunProgram(program)
	} else {
		value, err = vm.RunString(p.wrapExpression())
	}
	if err != nil {
		return false, wrapPolicyEvaluation("js", p.expression, ctx.Package, err)
	}
	return policyResultBool("js", p.expression, ctx.Package, value.Export())
}

func (p *jsPolicy) injectContext(vm *goja.Runtime, ctx PolicyContext) {
	vm.Set("pkg", ctx.Package)
	vm.Set("recorded", ctx.Recorded)
	vm.Set("current", ctx.Current)
	vm.Set("missing", ctx.Missing)
	if p.helpers != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return p.helpers.Call(name, arguments...)
		})
		for _, name := range p.helpers.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return p.helpers.Call(fn, arguments...)
			})
		}
	}
}

func (p *jsPolicy) wrapExpression() string {
	return fmt.Sprintf("(function(){ return (%s); })()", p.expression)
}

func jsPolicyAvailable() bool {
	return true
}
