package envelope

import (
	"github.com/charmbracelet/log"
)

// WarningHandler receives non-fatal mismatch reports after a successful load.
type WarningHandler interface {
	HandleMismatch(*MismatchError)
}

// WarningHandlerFunc adapts a function to WarningHandler.
type WarningHandlerFunc func(*MismatchError)

// HandleMismatch implements WarningHandler.
func (f WarningHandlerFunc) HandleMismatch(warning *MismatchError) {
	if f != nil {
		f(warning)
	}
}

type noopWarningHandler struct{}

func (noopWarningHandler) HandleMismatch(*MismatchError) {}

// logWarningHandler is the default handler: one warning line with a key/value
// pair per mismatched distribution.
type logWarningHandler struct{}

func (logWarningHandler) HandleMismatch(warning *MismatchError) {
	if warning == nil || len(warning.Mismatches) == 0 {
		return
	}
	fields := make([]any, 0, len(warning.Mismatches)*2)
	for _, name := range warning.Mismatches.Distributions() {
		fields = append(fields, name, warning.Mismatches[name].describe())
	}
	log.Warn("packages from the dump and load environments do not match", fields...)
}

// WithWarningHandler replaces the default log-based mismatch handler. Passing
// nil silences warnings entirely.
func WithWarningHandler(handler WarningHandler) Option {
	return func(cfg *config) {
		if handler == nil {
			cfg.warnings = noopWarningHandler{}
			return
		}
		cfg.warnings = handler
	}
}
