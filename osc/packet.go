package osc

import (
	"encoding"

	"github.com/pkg/errors"
)

// Packet is the interface for Message and Bundle.
type Packet interface {
	encoding.BinaryMarshaler
}

// ParsePacket parses an OSC Message or Bundle from data.
func ParsePacket(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("ParsePacket: empty packet")
	}

	switch data[0] {
	case '/':
		return NewMessageFromData(data)
	case '#':
		return NewBundleFromData(data)
	default:
		return nil, errors.Errorf("ParsePacket: invalid packet start %q", data[0])
	}
}
