// Package envelope wraps an object serializer so every stream starts with a
// header describing the environment that produced it, and loads validate that
// header against the environment doing the loading. The serialized payload
// bytes are exactly what the underlying codec produces; the header only
// precedes them.
package envelope

import (
	"bytes"
	"fmt"
	"io"
)

// Dump encodes v to w preceded by an environment metadata header. Under the
// default ScopeObject the value graph is first encoded into a buffer while
// its package provenance is collected, so the metadata is complete before the
// first byte reaches w; under the other scopes no introspection pass is
// needed and the payload is encoded straight to the sink after the header.
func Dump(v any, w io.Writer, opts ...Option) error {
	cfg := applyOptions(opts)
	if !cfg.scope.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScope, cfg.scope)
	}

	var meta EnvironmentMetadata
	var payload *bytes.Buffer
	switch cfg.scope {
	case ScopeObject:
		payload = &bytes.Buffer{}
		in := newIntrospector(cfg.codec)
		if err := in.dump(payload, v); err != nil {
			return fmt.Errorf("envelope: encode payload: %w", err)
		}
		built, err := FromScope(ScopeObject, in.moduleNames(), opts...)
		if err != nil {
			return err
		}
		meta = built
	default:
		built, err := FromScope(cfg.scope, nil, opts...)
		if err != nil {
			return err
		}
		meta = built
	}

	if err := cfg.codec.Encode(w, meta.ToHeader()); err != nil {
		return fmt.Errorf("envelope: write header: %w", err)
	}
	if payload != nil {
		if _, err := w.Write(payload.Bytes()); err != nil {
			return fmt.Errorf("envelope: write payload: %w", err)
		}
	} else if err := cfg.codec.Encode(w, v); err != nil {
		return fmt.Errorf("envelope: encode payload: %w", err)
	}

	cfg.emitAudit("envelope.dump", meta, nil)
	return nil
}

// Marshal is Dump into an in-memory byte slice.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Dump(v, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
