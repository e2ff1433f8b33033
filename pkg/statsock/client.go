package statsock

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// Client reproduces the wire interaction of original_source/
// ipfixprobe_stats.cpp: connect once, then repeatedly send the 4-byte
// magic request and read back one Snapshot, at a configurable redraw
// interval (the original's "-1/--one" flag maps to Poll's ctx being
// cancelled after the first iteration).
type Client struct {
	conn net.Conn
}

// Dial connects to a stats socket at path (see PathFor for how a
// server's path is derived from its pid).
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("statsock: dial %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// Once sends one request and returns the Snapshot it receives.
func (c *Client) Once() (Snapshot, error) {
	if err := writeRequest(c.conn); err != nil {
		return Snapshot{}, err
	}
	return readResponse(c.conn)
}

// Poll calls fn with a fresh Snapshot every interval until ctx is done
// or fn returns a non-nil error (which Poll then returns). Passing a
// context that is cancelled after the first tick reproduces the
// original client's "-1/--one" behaviour.
func (c *Client) Poll(ctx context.Context, interval time.Duration, fn func(Snapshot) error) error {
	for {
		snap, err := c.Once()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
