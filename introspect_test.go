package envelope

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-envelope/pkg/audit"
	"github.com/google/uuid"
)

const modulePath = "github.com/goliatone/go-envelope"

type gadget struct {
	Label string
	Count int
}

type cog struct {
	Teeth int
}

func walkValue(t *testing.T, v any) []string {
	t.Helper()
	in := newIntrospector(gobCodec{})
	in.walk(reflect.ValueOf(v))
	in.done = true
	return in.moduleNames()
}

func containsModule(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func TestIntrospectorDiscoversGraphPackages(t *testing.T) {
	value := []any{
		gadget{Label: "a"},
		map[string]*cog{"c": {Teeth: 12}},
		uuid.New(),
		audit.Event{Verb: "envelope.dump"},
		strings.ToUpper,
	}

	names := walkValue(t, value)

	for _, want := range []string{
		modulePath,
		modulePath + "/pkg/audit",
		"github.com/google/uuid",
		"strings",
		"time",
	} {
		if !containsModule(names, want) {
			t.Fatalf("expected %q to be discovered, got %v", want, names)
		}
	}
}

func TestIntrospectorTerminatesOnCycles(t *testing.T) {
	type node struct {
		Label string
		Next  *node
	}
	a := &node{Label: "a"}
	b := &node{Label: "b", Next: a}
	a.Next = b

	names := walkValue(t, a)
	if !containsModule(names, modulePath) {
		t.Fatalf("expected cyclic graph to record its package, got %v", names)
	}
}

func TestIntrospectorSharedReferencesRecordedOnce(t *testing.T) {
	shared := &gadget{Label: "shared"}
	names := walkValue(t, []*gadget{shared, shared, shared})
	if !containsModule(names, modulePath) {
		t.Fatalf("expected shared reference package, got %v", names)
	}
}

func TestIntrospectorDumpEncodesPayload(t *testing.T) {
	in := newIntrospector(gobCodec{})
	if in.moduleNames() != nil {
		t.Fatalf("expected nil module names before the dump completes")
	}

	var buf bytes.Buffer
	if err := in.dump(&buf, gadget{Label: "x", Count: 7}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !containsModule(in.moduleNames(), modulePath) {
		t.Fatalf("expected payload package recorded, got %v", in.moduleNames())
	}

	var out gadget
	if err := (gobCodec{}).Decode(&buf, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Label != "x" || out.Count != 7 {
		t.Fatalf("unexpected decoded payload: %+v", out)
	}
}

func TestFuncPackage(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{symbol: "example.com/mod/pkg.Fn", want: "example.com/mod/pkg"},
		{symbol: "example.com/mod/pkg.(*T).M-fm", want: "example.com/mod/pkg"},
		{symbol: "strings.ToUpper", want: "strings"},
		{symbol: "main.run", want: "main"},
		{symbol: "nodots", want: ""},
	}
	for _, tc := range cases {
		if got := funcPackage(tc.symbol); got != tc.want {
			t.Fatalf("funcPackage(%q) = %q, want %q", tc.symbol, got, tc.want)
		}
	}
}
