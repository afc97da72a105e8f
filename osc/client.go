package osc

import (
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Client enables you to send OSC Packets to a specified server and to
// receive its replies on the same socket.
type Client struct {
	conn *net.UDPConn
	log  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger used by Listen.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// Dial creates a new OSC Client with a connection to the specified server.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}

	conn, err := net.DialUDP("udp", nil, a)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	c := &Client{conn: conn, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// RemoteAddr returns the address of the server.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send sends an OSC Packet to the server.
func (c *Client) Send(packet Packet) error {
	data, err := packet.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = c.conn.Write(data)
	return err
}

// Listen dispatches packets sent back by the server until the client is
// closed.
func (c *Client) Listen(d *Dispatcher) error {
	s := &Server{Dispatcher: d, Logger: c.log}
	return s.Serve(c.conn)
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}
