// Package probe answers one question: can the embedded engine at the
// endpoint accept a connection right now? The socket file existing first is
// expected and not sufficient.
package probe

import (
	"context"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
)

// Probe asserts liveness of the endpoint.
type Probe interface {
	// Check returns nil when the endpoint accepts connections.
	Check(ctx context.Context) error
}

// Func adapts a function to the Probe interface.
type Func func(ctx context.Context) error

func (f Func) Check(ctx context.Context) error { return f(ctx) }

// SocketProbe performs a connect-then-close handshake against the
// unix-domain socket. Cheap enough for the startup polling loop.
type SocketProbe struct {
	Path    string
	Timeout time.Duration // dial bound, zero means 1s
}

func (p SocketProbe) Check(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "unix", p.Path)
	if err != nil {
		return err
	}
	return conn.Close()
}

// PingProbe opens a real postgres-protocol connection and pings it. Used for
// the application-level readiness gate: the socket may accept TCP-level
// connects slightly before the engine can serve queries.
type PingProbe struct {
	DSN string
}

func (p PingProbe) Check(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()
	return conn.Ping(ctx)
}
