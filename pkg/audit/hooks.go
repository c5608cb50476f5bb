package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event describes one completed dump or load.
type Event struct {
	// ID uniquely identifies the operation; minted when empty.
	ID string
	// Verb is the operation name, e.g. "envelope.dump" or "envelope.load".
	Verb string
	// Channel groups events for downstream sinks.
	Channel string
	// Scope is the package selection policy the operation ran under.
	Scope string
	// Distributions lists the distributions recorded in the stream header.
	Distributions []string
	// Mismatched lists distributions whose versions diverged on load.
	Mismatched []string
	// Metadata carries free-form annotations.
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when the verb is missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones slices and metadata, and ensures an
// ID and timestamp are present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.ID = strings.TrimSpace(event.ID)
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Scope = strings.TrimSpace(event.Scope)
	normalized.Distributions = cloneStrings(event.Distributions)
	normalized.Mismatched = cloneStrings(event.Mismatched)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.ID == "" {
		normalized.ID = uuid.NewString()
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneStrings(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	return append([]string{}, src...)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
