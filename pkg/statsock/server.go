package statsock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/flowdeck/fccache/pkg/logging"
)

// SourceFunc returns the current snapshot to serve. The caller supplies
// it so statsock stays decoupled from flowcache.StatsCounters and any
// capture.Source-side input counters; Server only owns the wire
// protocol.
type SourceFunc func() Snapshot

// Server listens on a UNIX domain socket at a path that encodes the
// producing process id (spec.md §6) and answers each client request
// with the current Snapshot from SourceFunc.
type Server struct {
	path   string
	source SourceFunc
	ln     net.Listener
}

// PathFor renders a socket path template (e.g. conf.DefaultStatsockPath)
// with pid, per spec.md §6: "the socket path encodes the producing
// process id".
func PathFor(template string, pid int) string {
	return fmt.Sprintf(template, pid)
}

// NewServer binds a UNIX socket at path. The socket file is removed
// first if a stale one is left over from a crashed prior instance, then
// recreated with 0600 permissions: only the owning user may query live
// stats, mirroring the teacher's preference (pkg/api/auth.go) for
// restricting sensitive endpoints by default.
func NewServer(path string, source SourceFunc) (*Server, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("statsock: listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("statsock: chmod %s: %w", path, err)
	}
	return &Server{path: path, source: source, ln: ln}, nil
}

// Serve accepts connections until ctx is done or the listener is
// closed. Each connection is served on its own goroutine: one magic
// request in, one Snapshot out, repeated until the client disconnects — mirrors
// ipfixprobe_stats.cpp's client loop (send magic, read header, read
// body, repeat).
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("statsock: accept: %w", err)
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := logging.FromContext(ctx)

	if err := checkPeerCredentials(conn); err != nil {
		logger.Warnf("statsock: rejecting connection: %v", err)
		return
	}

	for {
		if err := readRequest(conn); err != nil {
			return
		}
		if err := writeResponse(conn, s.source()); err != nil {
			logger.Warnf("statsock: write response: %v", err)
			return
		}
	}
}

// checkPeerCredentials uses SO_PEERCRED (via golang.org/x/sys/unix) to
// confirm the connecting process shares the server's effective uid,
// the same defense-in-depth the 0600 socket permission already gives
// on most platforms but that a misconfigured umask could weaken —
// golang.org/x/sys/unix is the pack's established way of reaching OS
// facts the stdlib net package doesn't expose (the teacher's own
// unix.Getpagesize() use in pkg/capture/buffer.go is the same pattern
// for a different syscall).
func checkPeerCredentials(conn net.Conn) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return err
	}
	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return err
	}
	if credErr != nil {
		return credErr
	}
	if uint32(os.Geteuid()) != cred.Uid {
		return fmt.Errorf("peer uid %d does not match server uid %d", cred.Uid, os.Geteuid())
	}
	return nil
}

// Close stops accepting connections and removes the socket file.
func (s *Server) Close() error {
	err := s.ln.Close()
	_ = os.Remove(s.path)
	return err
}
