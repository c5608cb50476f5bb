package envelope

import "strings"

// resolveDistributions maps package paths to the distributions providing
// them. Each path is reduced right to left against the registry mapping until
// a providing root matches; paths with no providing root (standard library
// packages, injected code) are silently dropped. The registry is queried once
// per call, duplicates are harmless, and an empty input yields an empty set.
func resolveDistributions(registry Registry, modules []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(modules) == 0 {
		return found, nil
	}
	mapping, err := registry.PackageDistributions()
	if err != nil {
		return nil, err
	}
	for _, module := range modules {
		root := module
		for root != "" {
			if dists, ok := mapping[root]; ok {
				for _, dist := range dists {
					found[dist] = struct{}{}
				}
				break
			}
			cut := strings.LastIndex(root, "/")
			if cut < 0 {
				break
			}
			root = root[:cut]
		}
	}
	return found, nil
}
