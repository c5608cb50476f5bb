package envelope

import (
	"io"
	"reflect"
	"runtime"
	"sort"
	"strings"
)

// introspector performs a conventional encode with one extra side effect: it
// walks the value graph the codec is about to encode and records the defining
// package of every value it meets. The walk mirrors gob reachability -
// exported struct fields, map keys and values, slice and array elements,
// pointer and interface indirection - and never alters the encoded bytes.
//
// Values with no traversable exported state (function internals, channels,
// structs of only unexported fields) contribute their own package and are not
// descended into; that residual coverage gap is accepted.
type introspector struct {
	codec   Codec
	modules map[string]struct{}
	seen    map[visit]struct{}
	done    bool
}

// visit identifies a reference already walked, so shared references are
// recorded once and cyclic graphs terminate.
type visit struct {
	typ reflect.Type
	ptr uintptr
}

func newIntrospector(codec Codec) *introspector {
	return &introspector{
		codec:   codec,
		modules: make(map[string]struct{}),
		seen:    make(map[visit]struct{}),
	}
}

// dump records the provenance of v's graph and then encodes v to w with the
// underlying codec.
func (in *introspector) dump(w io.Writer, v any) error {
	in.walk(reflect.ValueOf(v))
	in.done = true
	return in.codec.Encode(w, v)
}

// moduleNames exposes the discovery set, sorted. It returns nil until a dump
// completes; the set must not be read mid-dump.
func (in *introspector) moduleNames() []string {
	if !in.done {
		return nil
	}
	names := make([]string, 0, len(in.modules))
	for name := range in.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (in *introspector) walk(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	t := v.Type()

	// Functions name their own defining package; everything else is
	// attributed to the package of its runtime type.
	if t.Kind() == reflect.Func {
		if v.IsNil() {
			return
		}
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			if pkg := funcPackage(fn.Name()); pkg != "" {
				in.modules[pkg] = struct{}{}
			}
		}
		return
	}
	if pkg := t.PkgPath(); pkg != "" {
		in.modules[pkg] = struct{}{}
	}

	switch t.Kind() {
	case reflect.Pointer:
		if v.IsNil() || in.visited(t, v.Pointer()) {
			return
		}
		in.walk(v.Elem())
	case reflect.Interface:
		if !v.IsNil() {
			in.walk(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			in.walk(v.Field(i))
		}
	case reflect.Map:
		if v.IsNil() || in.visited(t, v.Pointer()) {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			in.walk(iter.Key())
			in.walk(iter.Value())
		}
	case reflect.Slice:
		if v.IsNil() || in.visited(t, v.Pointer()) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			in.walk(v.Index(i))
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			in.walk(v.Index(i))
		}
	}
}

func (in *introspector) visited(t reflect.Type, ptr uintptr) bool {
	key := visit{typ: t, ptr: ptr}
	if _, ok := in.seen[key]; ok {
		return true
	}
	in.seen[key] = struct{}{}
	return false
}

// funcPackage extracts the package path from a runtime symbol name such as
// "example.com/mod/pkg.Fn", "main.fn", or "example.com/mod/pkg.(*T).M-fm".
func funcPackage(symbol string) string {
	slash := strings.LastIndex(symbol, "/")
	dot := strings.Index(symbol[slash+1:], ".")
	if dot < 0 {
		return ""
	}
	return symbol[:slash+1+dot]
}
