package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-envelope/pkg/audit"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts audit events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Actor, user, and tenant identifiers travel in the event metadata under the
// "actor_id", "user_id", and "tenant_id" keys.
func (h Hook) Notify(ctx context.Context, event audit.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := audit.NormalizeEvent(event)
	if normalized.Verb == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    metadataUUID(normalized.Metadata, "actor_id"),
		UserID:     metadataUUID(normalized.Metadata, "user_id"),
		TenantID:   metadataUUID(normalized.Metadata, "tenant_id"),
		Verb:       normalized.Verb,
		ObjectType: "envelope",
		ObjectID:   normalized.ID,
		Channel:    normalized.Channel,
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if normalized.Scope != "" {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["scope"] = normalized.Scope
	}
	if len(normalized.Distributions) > 0 {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["distributions"] = append([]string{}, normalized.Distributions...)
	}
	if len(normalized.Mismatched) > 0 {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["mismatched"] = append([]string{}, normalized.Mismatched...)
	}

	return h.Sink.Log(ctx, record)
}

func metadataUUID(metadata map[string]any, key string) uuid.UUID {
	raw, ok := metadata[key]
	if !ok {
		return uuid.Nil
	}
	value, ok := raw.(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
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
