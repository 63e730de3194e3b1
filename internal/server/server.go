// Package server accepts TCP clients and funnels their transport events
// into a single channel. No connectivity state lives here; the run loop
// consuming the channel owns all of it, which keeps every mutation
// serialized on one goroutine.
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/sweeney/ap-led/internal/logic"
)

// readBufSize bounds a single receive event's payload.
const readBufSize = 1024

// Server owns the TCP listener and the per-connection readers.
type Server struct {
	ln          net.Listener
	idleTimeout time.Duration
	events      chan<- logic.NetEvent
	now         func() time.Time
}

// Listen arms the listener on addr. Transport events for every session are
// delivered to the events channel.
func Listen(addr string, idleTimeout time.Duration, events chan<- logic.NetEvent) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		ln:          ln,
		idleTimeout: idleTimeout,
		events:      events,
		now:         time.Now,
	}, nil
}

// Serve runs the accept loop. It returns when the listener is closed;
// individual accept failures are logged and survived.
func (s *Server) Serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("server: accept: %v", err)
			continue
		}

		session := xid.New().String()
		log.Printf("server: accepted session %s from %s", session, conn.RemoteAddr())
		s.events <- logic.NetEvent{Type: logic.NetAccepted, Session: session, Time: s.now()}
		go s.read(conn, session)
	}
}

// read pumps one connection until it ends. A clean close or an idle
// timeout ends the session with a DISCONNECTED event; any other I/O error
// aborts it with a RECONNECTED event instead. The controller treats the
// two differently, so the split matters.
func (s *Server) read(conn net.Conn, session string) {
	defer conn.Close()

	buf := make([]byte, readBufSize)
	for {
		if s.idleTimeout > 0 {
			conn.SetReadDeadline(s.now().Add(s.idleTimeout))
		}

		n, err := conn.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			s.events <- logic.NetEvent{Type: logic.NetReceived, Session: session, Payload: payload, Time: s.now()}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, net.ErrClosed) {
				s.events <- logic.NetEvent{Type: logic.NetDisconnected, Session: session, Time: s.now()}
			} else {
				s.events <- logic.NetEvent{Type: logic.NetReconnected, Session: session, Err: err, Time: s.now()}
			}
			return
		}
	}
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops the listener. Sessions already accepted keep running until
// they disconnect on their own.
func (s *Server) Close() error {
	return s.ln.Close()
}
