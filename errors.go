package envelope

import (
	"errors"
	"fmt"
)

// ErrObjectModulesRequired reports a metadata construction under ScopeObject
// without the module names discovered for the value.
var ErrObjectModulesRequired = errors.New(`envelope: scope "object" requires object modules`)

// ErrModulesNotAllowed reports object modules supplied with a scope that does
// not use them.
var ErrModulesNotAllowed = errors.New(`envelope: object modules are only valid with scope "object"`)

// ErrUnknownScope reports a scope outside object, loaded, and installed.
var ErrUnknownScope = errors.New("envelope: unknown package scope")

// PackageNotFoundError reports a distribution whose installed version could
// not be resolved. It is never swallowed: a metadata record must not silently
// omit a package it claims to track.
type PackageNotFoundError struct {
	Distribution string
	Err          error
}

func (e *PackageNotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("envelope: no installed version for %q: %v", e.Distribution, e.Err)
	}
	return fmt.Sprintf("envelope: no installed version for %q", e.Distribution)
}

func (e *PackageNotFoundError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
