package room

import "sync"

// Connection is one live (or recently live) WebSocket client. The Room
// Manager owns this record for the socket's lifetime; the write-loop task
// owns the send end of the outbound channel.
type Connection struct {
	UserID string
	GameID string

	// mu guards alive and outbound together, independent of the top-level
	// tables, so the heartbeat and a reconnecting Attach never race over
	// which channel is "the" socket's outbound channel.
	mu       sync.Mutex
	alive    bool
	outbound chan []byte
}

func newConnection(userID string, outbound chan []byte) *Connection {
	return &Connection{UserID: userID, outbound: outbound, alive: true}
}

func (c *Connection) SetAlive(v bool) {
	c.mu.Lock()
	c.alive = v
	c.mu.Unlock()
}

func (c *Connection) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Rebind swaps in a fresh outbound channel, used on reconnect.
func (c *Connection) Rebind(outbound chan []byte) {
	c.mu.Lock()
	c.outbound = outbound
	c.mu.Unlock()
}

// Send enqueues an already-encoded frame without blocking the caller on the
// socket write itself; the write-loop goroutine drains the channel.
func (c *Connection) Send(frame []byte) {
	c.mu.Lock()
	ch := c.outbound
	c.mu.Unlock()
	select {
	case ch <- frame:
	default:
		// Outbound is full: the write loop is stuck or the client is not
		// draining. Drop rather than block the caller holding table locks.
	}
}

// CloseOutbound closes the current outbound channel, signalling the write
// loop to exit.
func (c *Connection) CloseOutbound() {
	c.mu.Lock()
	defer c.mu.Unlock()
	close(c.outbound)
}
