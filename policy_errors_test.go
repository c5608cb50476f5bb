package envelope

import (
	"errors"
	"testing"
)

func TestWrapPolicyEvaluationCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapPolicyEvaluation("expr", "recorded == current", "github.com/google/uuid", base)

	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PolicyError, got %T", err)
	}
	if policyErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", policyErr.Engine)
	}
	if policyErr.Expr != "recorded == current" {
		t.Fatalf("expected expression metadata, got %q", policyErr.Expr)
	}
	if policyErr.Package != "github.com/google/uuid" {
		t.Fatalf("expected package metadata, got %q", policyErr.Package)
	}
	if !errors.Is(policyErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapPolicyEvaluationAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &PolicyError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapPolicyEvaluation("cel", "rule", "github.com/acme/widgets", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Package != "github.com/acme/widgets" {
		t.Fatalf("package should be filled, got %q", existing.Package)
	}
}

func TestWrapPolicyErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("envelope: helper \"x\" not registered")
	if got := wrapPolicyError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error passthrough, got %v", got)
	}
	plain := errors.New("boom")
	got := wrapPolicyError("expr", plain)
	if !errors.Is(got, plain) {
		t.Fatalf("expected wrapped error to unwrap to original")
	}
	if got == plain {
		t.Fatalf("expected plain error to gain the envelope prefix")
	}
}
