package broadcast

import (
	"log/slog"
)

// Router fans one encoded frame out to every session attached to a room,
// sender included. Delivery to each recipient is independent: a push that
// fails because a session is closed or backed up is logged and dropped, it
// never blocks or fails delivery to the rest of the room.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		logger:   slog.Default(),
	}
}

// Broadcast pushes frame to every member attached to roomKey at the moment
// the membership snapshot is taken. Members who disconnect between snapshot
// and push simply miss the frame; no member receives it twice. Returns the
// number of sessions the frame was queued for.
func (rt *Router) Broadcast(roomKey string, frame []byte) int {
	members := rt.registry.Members(roomKey)

	delivered := 0
	for _, member := range members {
		if err := member.Push(frame); err != nil {
			rt.logger.Warn("Dropping broadcast frame",
				"roomKey", roomKey,
				"sessionID", member.ID,
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}
