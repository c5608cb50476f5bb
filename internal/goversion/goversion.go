// Package goversion parses Go toolchain version strings into the
// three-component form recorded in stream headers.
package goversion

import (
	"runtime"
	"strconv"
	"strings"
)

// Parse extracts up to three numeric components from a toolchain version
// string such as "go1.24.10" or "devel go1.25-3f4e8ab". Missing components
// default to zero. The second return is false when no numeric components can
// be found.
func Parse(version string) ([3]int, bool) {
	var out [3]int
	v := strings.TrimSpace(version)
	idx := strings.Index(v, "go")
	if idx < 0 {
		return out, false
	}
	v = v[idx+2:]
	end := len(v)
	for i, r := range v {
		if r != '.' && (r < '0' || r > '9') {
			end = i
			break
		}
	}
	parts := strings.Split(v[:end], ".")
	if len(parts) == 0 || parts[0] == "" {
		return out, false
	}
	for i, part := range parts {
		if i >= len(out) {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return [3]int{}, false
		}
		out[i] = n
	}
	return out, true
}

// Runtime reports the version of the running toolchain, zero-valued when the
// reported string has no recognizable components.
func Runtime() [3]int {
	out, _ := Parse(runtime.Version())
	return out
}
