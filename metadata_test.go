package envelope

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testRegistry() StaticRegistry {
	return StaticRegistry{
		Distributions: map[string][]string{
			"github.com/acme/widgets": {"github.com/acme/widgets"},
			"github.com/acme/gears":   {"github.com/acme/gears"},
		},
		Versions: map[string]string{
			"github.com/acme/widgets": "v1.2.3",
			"github.com/acme/gears":   "v0.9.0",
		},
		Loaded: []string{"github.com/acme/widgets", "github.com/acme/gears"},
	}
}

func metaWithPackages(t *testing.T, scope string, version []int, packages map[string]string) EnvironmentMetadata {
	t.Helper()
	meta, err := FromHeader(map[string]any{
		headerKey: map[string]any{
			"packages":            packages,
			"interpreter_version": version,
			"scope":               scope,
		},
	})
	if err != nil {
		t.Fatalf("build metadata: %v", err)
	}
	return meta
}

func TestFromScopeObjectRequiresModules(t *testing.T) {
	_, err := FromScope(ScopeObject, nil, WithRegistry(testRegistry()))
	if !errors.Is(err, ErrObjectModulesRequired) {
		t.Fatalf("expected ErrObjectModulesRequired, got %v", err)
	}

	meta, err := FromScope(ScopeObject, []string{}, WithRegistry(testRegistry()))
	if err != nil {
		t.Fatalf("expected empty module list to be accepted, got %v", err)
	}
	if len(meta.Packages()) != 0 {
		t.Fatalf("expected no packages, got %v", meta.Packages())
	}
	if meta.Scope() != ScopeObject {
		t.Fatalf("expected object scope, got %q", meta.Scope())
	}
}

func TestFromScopeRejectsModulesOutsideObject(t *testing.T) {
	for _, scope := range []Scope{ScopeLoaded, ScopeInstalled} {
		_, err := FromScope(scope, []string{"github.com/acme/widgets"}, WithRegistry(testRegistry()))
		if !errors.Is(err, ErrModulesNotAllowed) {
			t.Fatalf("scope %q: expected ErrModulesNotAllowed, got %v", scope, err)
		}
	}
}

func TestFromScopeUnknownScope(t *testing.T) {
	_, err := FromScope(Scope("available"), nil, WithRegistry(testRegistry()))
	if !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestFromScopeObjectResolvesSubpackages(t *testing.T) {
	meta, err := FromScope(ScopeObject, []string{
		"github.com/acme/widgets/internal/db",
		"github.com/acme/widgets",
		"strings",
	}, WithRegistry(testRegistry()))
	if err != nil {
		t.Fatalf("from scope: %v", err)
	}

	want := map[string]string{"github.com/acme/widgets": "v1.2.3"}
	if diff := cmp.Diff(want, meta.Packages()); diff != "" {
		t.Fatalf("unexpected packages (-want +got):\n%s", diff)
	}
}

func TestFromScopeLoadedAndInstalled(t *testing.T) {
	want := map[string]string{
		"github.com/acme/widgets": "v1.2.3",
		"github.com/acme/gears":   "v0.9.0",
	}
	for _, scope := range []Scope{ScopeLoaded, ScopeInstalled} {
		meta, err := FromScope(scope, nil, WithRegistry(testRegistry()))
		if err != nil {
			t.Fatalf("scope %q: %v", scope, err)
		}
		if diff := cmp.Diff(want, meta.Packages()); diff != "" {
			t.Fatalf("scope %q: unexpected packages (-want +got):\n%s", scope, diff)
		}
		if meta.Scope() != scope {
			t.Fatalf("expected scope %q, got %q", scope, meta.Scope())
		}
	}
}

func TestFromScopePropagatesPackageNotFound(t *testing.T) {
	registry := testRegistry()
	delete(registry.Versions, "github.com/acme/gears")

	_, err := FromScope(ScopeInstalled, nil, WithRegistry(registry))
	var notFound *PackageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected PackageNotFoundError, got %v", err)
	}
	if notFound.Distribution != "github.com/acme/gears" {
		t.Fatalf("expected distribution metadata, got %q", notFound.Distribution)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	meta, err := FromScope(ScopeInstalled, nil, WithRegistry(testRegistry()))
	if err != nil {
		t.Fatalf("from scope: %v", err)
	}

	header := meta.ToHeader()
	contents, ok := header[headerKey].(map[string]any)
	if !ok {
		t.Fatalf("expected nested header map, got %T", header[headerKey])
	}
	if contents["scope"] != "installed" {
		t.Fatalf("expected scope string in header, got %v", contents["scope"])
	}
	if _, ok := contents["interpreter_version"].([]int); !ok {
		t.Fatalf("expected interpreter_version as []int, got %T", contents["interpreter_version"])
	}

	decoded, err := FromHeader(header)
	if err != nil {
		t.Fatalf("from header: %v", err)
	}
	if !decoded.Equal(meta) {
		t.Fatalf("expected round-tripped metadata to be equal")
	}
}

func TestHeaderRoundTripFromCanonicalHeader(t *testing.T) {
	header := map[string]any{
		headerKey: map[string]any{
			"packages": map[string]string{
				"github.com/acme/widgets": "v1.2.3",
				"github.com/acme/gears":   "v0.9.0",
			},
			"interpreter_version": []int{1, 24, 10},
			"scope":               "loaded",
		},
	}

	decoded, err := FromHeader(header)
	if err != nil {
		t.Fatalf("from header: %v", err)
	}
	if diff := cmp.Diff(header, decoded.ToHeader()); diff != "" {
		t.Fatalf("expected canonical header to survive the round trip (-want +got):\n%s", diff)
	}
}

func TestFromHeaderToleratesIntegerShapes(t *testing.T) {
	decoded, err := FromHeader(map[string]any{
		headerKey: map[string]any{
			"packages":            map[string]any{"a": "v1"},
			"interpreter_version": []any{float64(1), int64(24), 10},
			"scope":               "loaded",
		},
	})
	if err != nil {
		t.Fatalf("from header: %v", err)
	}
	if decoded.RuntimeVersion() != [3]int{1, 24, 10} {
		t.Fatalf("expected [1 24 10], got %v", decoded.RuntimeVersion())
	}
}

func TestFromHeaderRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]any
	}{
		{name: "missing key", header: map[string]any{}},
		{name: "wrong nesting", header: map[string]any{headerKey: "nope"}},
		{
			name: "bad packages",
			header: map[string]any{headerKey: map[string]any{
				"packages":            []string{"a"},
				"interpreter_version": []int{1, 24, 0},
				"scope":               "installed",
			}},
		},
		{
			name: "bad package version type",
			header: map[string]any{headerKey: map[string]any{
				"packages":            map[string]any{"a": 1},
				"interpreter_version": []int{1, 24, 0},
				"scope":               "installed",
			}},
		},
		{
			name: "bad version component",
			header: map[string]any{headerKey: map[string]any{
				"packages":            map[string]string{},
				"interpreter_version": []any{"one"},
				"scope":               "installed",
			}},
		},
		{
			name: "empty scope",
			header: map[string]any{headerKey: map[string]any{
				"packages":            map[string]string{},
				"interpreter_version": []int{1, 24, 0},
				"scope":               "",
			}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromHeader(tc.header); err == nil {
				t.Fatalf("expected malformed header to be rejected")
			}
		})
	}
}

func TestValidateAgainst(t *testing.T) {
	recorded := metaWithPackages(t, "object", []int{1, 24, 10}, map[string]string{
		"github.com/acme/widgets": "v1.2.3",
		"github.com/acme/gears":   "v0.9.0",
	})

	t.Run("identical environments agree", func(t *testing.T) {
		loaded := metaWithPackages(t, "installed", []int{1, 24, 10}, map[string]string{
			"github.com/acme/widgets": "v1.2.3",
			"github.com/acme/gears":   "v0.9.0",
		})
		if got := recorded.ValidateAgainst(loaded); got != nil {
			t.Fatalf("expected nil mismatch, got %v", got)
		}
	})

	t.Run("extra packages on the loading side are ignored", func(t *testing.T) {
		loaded := metaWithPackages(t, "installed", []int{1, 24, 10}, map[string]string{
			"github.com/acme/widgets": "v1.2.3",
			"github.com/acme/gears":   "v0.9.0",
			"github.com/acme/extras":  "v3.0.0",
		})
		if got := recorded.ValidateAgainst(loaded); got != nil {
			t.Fatalf("expected nil mismatch, got %v", got)
		}
		if got := loaded.ValidateAgainst(recorded); len(got) != 1 {
			t.Fatalf("expected reverse comparison to flag the extra package, got %v", got)
		}
	})

	t.Run("version change is reported", func(t *testing.T) {
		loaded := metaWithPackages(t, "installed", []int{1, 24, 10}, map[string]string{
			"github.com/acme/widgets": "v2.0.0",
			"github.com/acme/gears":   "v0.9.0",
		})
		got := recorded.ValidateAgainst(loaded)
		want := Mismatch{"github.com/acme/widgets": {Recorded: "v1.2.3", Current: "v2.0.0"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("absent package is reported as missing", func(t *testing.T) {
		loaded := metaWithPackages(t, "installed", []int{1, 24, 10}, map[string]string{
			"github.com/acme/widgets": "v1.2.3",
		})
		got := recorded.ValidateAgainst(loaded)
		want := Mismatch{"github.com/acme/gears": {Recorded: "v0.9.0", Missing: true}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("runtime version and scope are never compared", func(t *testing.T) {
		loaded := metaWithPackages(t, "installed", []int{1, 99, 0}, map[string]string{
			"github.com/acme/widgets": "v1.2.3",
			"github.com/acme/gears":   "v0.9.0",
		})
		if got := recorded.ValidateAgainst(loaded); got != nil {
			t.Fatalf("expected runtime and scope differences to be ignored, got %v", got)
		}
	})
}

func TestPackagesReturnsCopy(t *testing.T) {
	meta := metaWithPackages(t, "installed", []int{1, 24, 0}, map[string]string{"a": "v1"})
	packages := meta.Packages()
	packages["a"] = "changed"

	version, ok := meta.Version("a")
	if !ok || version != "v1" {
		t.Fatalf("expected internal state untouched, got %q %v", version, ok)
	}
}

func TestEqual(t *testing.T) {
	a := metaWithPackages(t, "installed", []int{1, 24, 0}, map[string]string{"a": "v1"})
	b := metaWithPackages(t, "installed", []int{1, 24, 0}, map[string]string{"a": "v1"})
	c := metaWithPackages(t, "loaded", []int{1, 24, 0}, map[string]string{"a": "v1"})

	if !a.Equal(b) {
		t.Fatalf("expected identical records to be equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected differing scopes to break equality")
	}
}
