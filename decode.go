package envelope

import (
	"bytes"
	"fmt"
	"io"
)

// Load decodes a stream produced by Dump into v and validates its header
// against the loading environment. Validation never blocks a successful
// decode: differences are delivered to the configured WarningHandler and the
// recorded metadata is returned. When the payload fails to decode and a
// mismatch exists, the decode failure is returned wrapped in a *MismatchError
// so version skew shows up next to the failure; without a mismatch the decode
// failure is returned as-is.
func Load(r io.Reader, v any, opts ...Option) (EnvironmentMetadata, error) {
	cfg := applyOptions(opts)
	source := byteSource(r)

	var header map[string]any
	if err := cfg.codec.Decode(source, &header); err != nil {
		return EnvironmentMetadata{}, fmt.Errorf("envelope: read header: %w", err)
	}
	recorded, err := FromHeader(header)
	if err != nil {
		return EnvironmentMetadata{}, err
	}

	// The loading side is described under the broadest scope: everything
	// available to compare against, independent of what v needs.
	current, err := FromScope(ScopeInstalled, nil, WithRegistry(cfg.registry))
	if err != nil {
		return EnvironmentMetadata{}, err
	}
	mismatch := recorded.ValidateAgainst(current)
	mismatch = applyPolicy(cfg.policy, mismatch)

	if err := cfg.codec.Decode(source, v); err != nil {
		if len(mismatch) > 0 {
			return EnvironmentMetadata{}, newMismatchFailure(mismatch, err)
		}
		return EnvironmentMetadata{}, err
	}

	if len(mismatch) > 0 {
		cfg.warnings.HandleMismatch(newMismatchWarning(mismatch))
	}
	cfg.emitAudit("envelope.load", recorded, mismatch)
	return recorded, nil
}

// Unmarshal is Load from an in-memory byte slice.
func Unmarshal(data []byte, v any, opts ...Option) (EnvironmentMetadata, error) {
	return Load(bytes.NewReader(data), v, opts...)
}
