package cli

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/events"
)

const auditSubscriberID = "cli-audit"

// subscribeAudit logs every mutation event at info level, and failures at
// warn level.
func subscribeAudit(pub events.Publisher, log zerolog.Logger) error {
	return pub.Subscribe(auditSubscriberID, events.Filter{}, func(ev *events.Event) {
		entry := log.Info()
		if ev.Type == events.MutationFailed {
			entry = log.Warn()
		}
		entry = entry.
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Str("entity_type", string(ev.EntityType)).
			Str("entity_id", ev.EntityID)
		keys := make([]string, 0, len(ev.Metadata))
		for k := range ev.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entry = entry.Str(k, ev.Metadata[k])
		}
		entry.Msg(ev.Message)
	})
}
