// internal/game/client.go
package game

import "github.com/google/uuid"

// Client is the engine's handle for one connected player. The transport layer
// constructs it and wires SendFn to the actual connection; the engine never
// touches the socket directly. UserID is an opaque identifier supplied by the
// authentication collaborator and is not validated beyond presence.
type Client struct {
	ID     uuid.UUID
	UserID string
	Alias  string

	// SendFn delivers one outbound event to this player. Implementations must
	// not block and must swallow delivery errors; a dead recipient is detected
	// by the transport's own close event, not here.
	SendFn func(ev Event)
}

func (c *Client) send(ev Event) {
	if c == nil || c.SendFn == nil {
		return
	}
	c.SendFn(ev)
}
