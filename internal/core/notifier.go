package core

import "harp/pkg/schema"

// Notifier publishes state snapshots and ephemeral notifications to
// connected observers. Delivery is fire-and-forget: a disconnected session
// is not an error the publisher ever sees.
type Notifier interface {
	// PublishState delivers a snapshot to one session.
	PublishState(sessionID string, snap schema.StateSnapshot)

	// BroadcastState delivers a snapshot to every connected session.
	BroadcastState(snap schema.StateSnapshot)

	// Notify delivers a transient notification to one session.
	Notify(sessionID string, note schema.Notification)
}
