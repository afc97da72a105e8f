package osc

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, MaxPacketSize)
		return &b
	},
}

// Server represents an OSC server. The server listens on Addr for incoming
// OSC packets and bundles.
type Server struct {
	Addr        string
	Dispatcher  *Dispatcher
	ReadTimeout time.Duration
	Logger      *zap.Logger
}

// ListenAndServe retrieves incoming OSC packets and dispatches the retrieved OSC packets.
func (s *Server) ListenAndServe() error {
	ln, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.Addr)
	}
	defer ln.Close()

	return s.Serve(ln)
}

// Serve retrieves incoming OSC packets from the given connection and
// dispatches them in arrival order. Malformed packets are logged and
// skipped. Serve returns nil once c is closed.
func (s *Server) Serve(c net.PacketConn) error {
	if s.Dispatcher == nil {
		s.Dispatcher = &Dispatcher{}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Dispatcher.Logger == nil {
		s.Dispatcher.Logger = s.Logger
	}

	var tempDelay time.Duration
	for {
		data, addr, err := s.readFromConnection(c)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		p, err := ParsePacket(data)
		if err != nil {
			s.Logger.Warn("osc: dropping malformed packet", zap.Stringer("from", addr), zap.Error(err))
			continue
		}
		s.serve(p, addr)
	}
}

func (s *Server) serve(p Packet, a net.Addr) {
	defer func() {
		if err := recover(); err != nil {
			s.Logger.Error("osc: panic handling packet",
				zap.Stringer("from", a),
				zap.Any("panic", err),
				zap.Stack("stack"))
		}
	}()
	if err := s.Dispatcher.Dispatch(p); err != nil {
		s.Logger.Error("osc: dispatch", zap.Stringer("from", a), zap.Error(err))
	}
}

// ReceivePacket reads and parses a single packet from c.
func (s *Server) ReceivePacket(c net.PacketConn) (Packet, net.Addr, error) {
	data, a, err := s.readFromConnection(c)
	if err != nil {
		return nil, a, err
	}
	p, err := ParsePacket(data)
	return p, a, err
}

// readFromConnection reads one datagram.
func (s *Server) readFromConnection(c net.PacketConn) ([]byte, net.Addr, error) {
	if s.ReadTimeout != 0 {
		if err := c.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return nil, nil, err
		}
	}

	b := bufPool.Get().(*[]byte)
	defer bufPool.Put(b)

	n, a, err := c.ReadFrom(*b)
	if err != nil {
		return nil, a, err
	}
	data := make([]byte, n)
	copy(data, *b)
	return data, a, nil
}
