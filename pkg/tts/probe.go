package tts

import (
	"context"
	"fmt"
	"net"

	"talkback/pkg/probe"
)

// ConnectivityCheck returns a probe check that dials the synthesis endpoint
// host. A short successful TCP connect is enough to decide that the online
// neural voice is worth trying; no speech request is made.
func ConnectivityCheck(host string) probe.CheckFunc {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return fmt.Errorf("no route to %s: %w", host, err)
		}
		return conn.Close()
	}
}
