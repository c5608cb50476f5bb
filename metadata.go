package envelope

import (
	"fmt"
	"maps"
	"sort"

	"github.com/goliatone/go-envelope/internal/goversion"
)

// headerKey names the single top-level entry of a stream header.
const headerKey = "environment_metadata"

// EnvironmentMetadata is an immutable record of the software environment a
// stream was produced in: installed distribution versions, the runtime
// version, and the scope policy that selected the packages. Instances are
// built once per dump or load and never mutated; accessors return copies.
type EnvironmentMetadata struct {
	packages map[string]string
	runtime  [3]int
	scope    Scope
}

// FromScope builds a metadata record under the given scope. ScopeObject
// requires the package paths discovered for the value (a nil slice is
// rejected, an empty one is allowed); the other scopes reject object modules
// outright. Version lookups that fail are propagated, never skipped.
func FromScope(scope Scope, objectModules []string, opts ...Option) (EnvironmentMetadata, error) {
	cfg := applyOptions(opts)
	registry := cfg.registry

	var distributions map[string]struct{}
	switch scope {
	case ScopeObject:
		if objectModules == nil {
			return EnvironmentMetadata{}, ErrObjectModulesRequired
		}
		resolved, err := resolveDistributions(registry, objectModules)
		if err != nil {
			return EnvironmentMetadata{}, err
		}
		distributions = resolved
	case ScopeLoaded:
		if objectModules != nil {
			return EnvironmentMetadata{}, ErrModulesNotAllowed
		}
		modules, err := registry.LoadedModules()
		if err != nil {
			return EnvironmentMetadata{}, err
		}
		resolved, err := resolveDistributions(registry, modules)
		if err != nil {
			return EnvironmentMetadata{}, err
		}
		distributions = resolved
	case ScopeInstalled:
		if objectModules != nil {
			return EnvironmentMetadata{}, ErrModulesNotAllowed
		}
		mapping, err := registry.PackageDistributions()
		if err != nil {
			return EnvironmentMetadata{}, err
		}
		distributions = make(map[string]struct{})
		for _, dists := range mapping {
			for _, dist := range dists {
				distributions[dist] = struct{}{}
			}
		}
	default:
		return EnvironmentMetadata{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	packages := make(map[string]string, len(distributions))
	for dist := range distributions {
		version, err := registry.Version(dist)
		if err != nil {
			return EnvironmentMetadata{}, err
		}
		packages[dist] = version
	}

	return EnvironmentMetadata{
		packages: packages,
		runtime:  goversion.Runtime(),
		scope:    scope,
	}, nil
}

// Packages returns a copy of the distribution to version mapping.
func (m EnvironmentMetadata) Packages() map[string]string {
	out := make(map[string]string, len(m.packages))
	maps.Copy(out, m.packages)
	return out
}

// Version reports the recorded version for a distribution.
func (m EnvironmentMetadata) Version(distribution string) (string, bool) {
	version, ok := m.packages[distribution]
	return version, ok
}

// RuntimeVersion reports the recorded three-component runtime version.
func (m EnvironmentMetadata) RuntimeVersion() [3]int {
	return m.runtime
}

// Scope reports the selection policy that produced the record.
func (m EnvironmentMetadata) Scope() Scope {
	return m.scope
}

// Equal reports whether two records carry identical packages, runtime
// version, and scope.
func (m EnvironmentMetadata) Equal(other EnvironmentMetadata) bool {
	return m.scope == other.scope &&
		m.runtime == other.runtime &&
		maps.Equal(m.packages, other.packages)
}

// ToHeader renders the record as plain nested maps of primitive values, so a
// reader that never imports this module can still decode and inspect it.
func (m EnvironmentMetadata) ToHeader() map[string]any {
	return map[string]any{
		headerKey: map[string]any{
			"packages":            m.Packages(),
			"interpreter_version": []int{m.runtime[0], m.runtime[1], m.runtime[2]},
			"scope":               string(m.scope),
		},
	}
}

// FromHeader is the exact inverse of ToHeader. It tolerates the integer
// shapes other codecs produce for the version components but otherwise
// rejects malformed headers.
func FromHeader(header map[string]any) (EnvironmentMetadata, error) {
	raw, ok := header[headerKey]
	if !ok {
		return EnvironmentMetadata{}, fmt.Errorf("envelope: header is missing %q", headerKey)
	}
	contents, ok := raw.(map[string]any)
	if !ok {
		return EnvironmentMetadata{}, fmt.Errorf("envelope: header %q is %T, want a map", headerKey, raw)
	}

	packages, err := headerPackages(contents["packages"])
	if err != nil {
		return EnvironmentMetadata{}, err
	}
	runtimeVersion, err := headerVersion(contents["interpreter_version"])
	if err != nil {
		return EnvironmentMetadata{}, err
	}
	scope, ok := contents["scope"].(string)
	if !ok || scope == "" {
		return EnvironmentMetadata{}, fmt.Errorf("envelope: header scope is %v, want a non-empty string", contents["scope"])
	}

	return EnvironmentMetadata{
		packages: packages,
		runtime:  runtimeVersion,
		scope:    Scope(scope),
	}, nil
}

func headerPackages(raw any) (map[string]string, error) {
	switch packages := raw.(type) {
	case map[string]string:
		out := make(map[string]string, len(packages))
		maps.Copy(out, packages)
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(packages))
		for name, value := range packages {
			version, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("envelope: header package %q has version %T, want a string", name, value)
			}
			out[name] = version
		}
		return out, nil
	default:
		return nil, fmt.Errorf("envelope: header packages is %T, want a map of versions", raw)
	}
}

func headerVersion(raw any) ([3]int, error) {
	var out [3]int
	var parts []any
	switch version := raw.(type) {
	case []int:
		for i, n := range version {
			if i >= len(out) {
				break
			}
			out[i] = n
		}
		return out, nil
	case [3]int:
		return version, nil
	case []any:
		parts = version
	default:
		return out, fmt.Errorf("envelope: header interpreter_version is %T, want a list of integers", raw)
	}
	for i, part := range parts {
		if i >= len(out) {
			break
		}
		switch n := part.(type) {
		case int:
			out[i] = n
		case int64:
			out[i] = int(n)
		case float64:
			out[i] = int(n)
		default:
			return [3]int{}, fmt.Errorf("envelope: header interpreter_version component %T is not an integer", part)
		}
	}
	return out, nil
}

// ValidateAgainst compares the record against the loading environment's
// record. The comparison is directional: every package recorded here must be
// present in loaded at the same version, packages only the loading side has
// are ignored, and runtime version and scope are never compared. A nil result
// means no mismatch.
func (m EnvironmentMetadata) ValidateAgainst(loaded EnvironmentMetadata) Mismatch {
	mismatch := Mismatch{}
	for name, recorded := range m.packages {
		current, ok := loaded.packages[name]
		if !ok {
			mismatch[name] = VersionPair{Recorded: recorded, Missing: true}
			continue
		}
		if current != recorded {
			mismatch[name] = VersionPair{Recorded: recorded, Current: current}
		}
	}
	if len(mismatch) == 0 {
		return nil
	}
	return mismatch
}

func (m EnvironmentMetadata) packageNames() []string {
	names := make([]string, 0, len(m.packages))
	for name := range m.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
