package envelope

import (
	"errors"
	"fmt"
	"strings"
)

// PolicyError captures policy engine metadata alongside the originating error.
type PolicyError struct {
	Engine  string
	Expr    string
	Package string
	Err     error
}

func (e *PolicyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("envelope: %s policy %s package=%s: %v", e.Engine, describeExpression(e.Expr), e.Package, e.Err)
}

func (e *PolicyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapPolicyError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var policyErr *PolicyError
	if errors.As(err, &policyErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "envelope:") {
		return err
	}
	return fmt.Errorf("envelope: %s policy: %w", engine, err)
}

func wrapPolicyEvaluation(engine, expr, pkg string, err error) error {
	if err == nil {
		return nil
	}

	var policyErr *PolicyError
	if errors.As(err, &policyErr) {
		if policyErr.Engine == "" {
			policyErr.Engine = engine
		}
		if policyErr.Expr == "" {
			policyErr.Expr = expr
		}
		if policyErr.Package == "" {
			policyErr.Package = pkg
		}
		return policyErr
	}

	return &PolicyError{
		Engine:  engine,
		Expr:    expr,
		Package: pkg,
		Err:     err,
	}
}

// policyResultBool coerces an engine result into the tolerate decision.
func policyResultBool(engine, expr, pkg string, result any) (bool, error) {
	tolerated, ok := result.(bool)
	if !ok {
		return false, wrapPolicyEvaluation(engine, expr, pkg, fmt.Errorf("policy result %T is not a bool", result))
	}
	return tolerated, nil
}
