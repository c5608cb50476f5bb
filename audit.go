package envelope

import (
	"context"

	"github.com/goliatone/go-envelope/pkg/audit"
)

// emitAudit forwards a completed operation to the configured emitter. Audit
// failures never fail the dump or load that triggered them.
func (cfg config) emitAudit(verb string, meta EnvironmentMetadata, mismatch Mismatch) {
	if !cfg.audit.Enabled() {
		return
	}
	_ = cfg.audit.Emit(context.Background(), audit.Event{
		Verb:          verb,
		Scope:         string(meta.Scope()),
		Distributions: meta.packageNames(),
		Mismatched:    mismatch.Distributions(),
	})
}
