package envelope

import (
	"errors"
	"runtime/debug"
	"sync"
)

// Registry answers which distributions provide which packages and what
// versions are installed. It is the injectable collaborator behind every
// metadata construction, so simulated environments can stand in for the
// running binary.
//
// All three methods are read-only and must be safe for concurrent use.
type Registry interface {
	// PackageDistributions maps package roots to the distributions that
	// provide them.
	PackageDistributions() (map[string][]string, error)
	// Version reports the installed version of a distribution. It returns a
	// *PackageNotFoundError when the distribution is not installed.
	Version(distribution string) (string, error)
	// LoadedModules lists the package paths of every module available to the
	// running program.
	LoadedModules() ([]string, error)
}

// DefaultRegistry returns the registry backed by the running binary's build
// information. The build info is fixed for the life of the process, so one
// shared instance reads it once.
func DefaultRegistry() Registry {
	return defaultRegistry
}

var defaultRegistry = &buildInfoRegistry{}

var errNoBuildInfo = errors.New("envelope: build information unavailable")

type buildInfoRegistry struct {
	once sync.Once
	info *debug.BuildInfo
}

func (r *buildInfoRegistry) load() *debug.BuildInfo {
	r.once.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok {
			r.info = info
		}
	})
	return r.info
}

func (r *buildInfoRegistry) PackageDistributions() (map[string][]string, error) {
	info := r.load()
	if info == nil {
		return nil, errNoBuildInfo
	}
	mapping := make(map[string][]string, len(info.Deps)+1)
	if info.Main.Path != "" {
		mapping[info.Main.Path] = []string{info.Main.Path}
	}
	for _, dep := range info.Deps {
		mapping[dep.Path] = []string{dep.Path}
	}
	return mapping, nil
}

func (r *buildInfoRegistry) Version(distribution string) (string, error) {
	info := r.load()
	if info == nil {
		return "", errNoBuildInfo
	}
	if info.Main.Path == distribution {
		return moduleVersion(info.Main), nil
	}
	for _, dep := range info.Deps {
		if dep.Path != distribution {
			continue
		}
		if dep.Replace != nil {
			return moduleVersion(*dep.Replace), nil
		}
		return moduleVersion(*dep), nil
	}
	return "", &PackageNotFoundError{Distribution: distribution}
}

func (r *buildInfoRegistry) LoadedModules() ([]string, error) {
	info := r.load()
	if info == nil {
		return nil, errNoBuildInfo
	}
	modules := make([]string, 0, len(info.Deps)+1)
	if info.Main.Path != "" {
		modules = append(modules, info.Main.Path)
	}
	for _, dep := range info.Deps {
		modules = append(modules, dep.Path)
	}
	return modules, nil
}

func moduleVersion(mod debug.Module) string {
	if mod.Version == "" {
		return "(devel)"
	}
	return mod.Version
}

// StaticRegistry serves a fixed environment description. It backs tests and
// lets hosts validate streams against environments other than the running
// binary.
type StaticRegistry struct {
	// Distributions maps package roots to providing distributions.
	Distributions map[string][]string
	// Versions maps distribution names to installed versions.
	Versions map[string]string
	// Loaded lists package paths considered loaded.
	Loaded []string
}

func (r StaticRegistry) PackageDistributions() (map[string][]string, error) {
	mapping := make(map[string][]string, len(r.Distributions))
	for root, dists := range r.Distributions {
		mapping[root] = append([]string(nil), dists...)
	}
	return mapping, nil
}

func (r StaticRegistry) Version(distribution string) (string, error) {
	if version, ok := r.Versions[distribution]; ok {
		return version, nil
	}
	return "", &PackageNotFoundError{Distribution: distribution}
}

func (r StaticRegistry) LoadedModules() ([]string, error) {
	return append([]string(nil), r.Loaded...), nil
}
