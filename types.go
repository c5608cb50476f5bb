package envelope

import (
	"io"

	"github.com/goliatone/go-envelope/pkg/audit"
)

// Scope selects which installed packages a metadata record describes.
type Scope string

const (
	// ScopeObject records only the packages needed by the encoded value,
	// discovered by walking the object graph before encoding.
	ScopeObject Scope = "object"
	// ScopeLoaded records the packages backing every module linked into the
	// running program.
	ScopeLoaded Scope = "loaded"
	// ScopeInstalled records every package the registry knows about,
	// regardless of what the encoded value needs.
	ScopeInstalled Scope = "installed"
)

func (s Scope) valid() bool {
	switch s {
	case ScopeObject, ScopeLoaded, ScopeInstalled:
		return true
	}
	return false
}

// Codec is the underlying object serializer a versioned stream is built on.
// Encode must append one self-delimiting segment per call, and Decode must not
// consume bytes past the end of the decoded segment when the reader implements
// io.ByteReader, so that a header and payload can share one stream.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

// Option configures a dump, load, or metadata construction.
type Option func(*config)

type config struct {
	scope    Scope
	codec    Codec
	registry Registry
	policy   Policy
	warnings WarningHandler
	audit    *audit.Emitter
}

func applyOptions(opts []Option) config {
	cfg := config{
		scope:    ScopeObject,
		codec:    gobCodec{},
		registry: DefaultRegistry(),
		warnings: logWarningHandler{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithScope selects the package scope recorded during a dump.
func WithScope(scope Scope) Option {
	return func(cfg *config) {
		cfg.scope = scope
	}
}

// WithCodec replaces the default gob codec for both the header and the payload.
func WithCodec(codec Codec) Option {
	return func(cfg *config) {
		if codec == nil {
			return
		}
		cfg.codec = codec
	}
}

// WithRegistry replaces the build-info backed package registry.
func WithRegistry(registry Registry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.registry = registry
	}
}

// WithPolicy installs a mismatch policy consulted before a mismatch is
// surfaced. Entries the policy tolerates are dropped from the report.
func WithPolicy(policy Policy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithAuditHooks attaches audit hooks notified after each dump and load.
// Events are emitted on the default "envelope" channel; use WithAuditEmitter
// to control enablement and the channel.
func WithAuditHooks(hooks audit.Hooks) Option {
	return WithAuditEmitter(audit.NewEmitter(hooks, audit.Config{Enabled: true}))
}

// WithAuditEmitter attaches a preconfigured audit emitter.
func WithAuditEmitter(emitter *audit.Emitter) Option {
	return func(cfg *config) {
		cfg.audit = emitter
	}
}
