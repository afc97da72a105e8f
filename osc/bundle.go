package osc

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// Bundle represents an OSC bundle. It consists of the OSC-string "#bundle"
// followed by an OSC Time Tag, followed by zero or more OSC bundle/message
// elements. The OSC-timetag is a 64-bit fixed point time tag. See
// http://opensoundcontrol.org/spec-1_0.html for more information.
type Bundle struct {
	Timetag  Timetag
	Elements []Packet
}

// Verify that Bundle implements the Packet interface.
var _ Packet = (*Bundle)(nil)

// NewBundle returns a Bundle to be executed at tt.
func NewBundle(tt Timetag, elems ...Packet) *Bundle {
	return &Bundle{Timetag: tt, Elements: elems}
}

// NewBundleWithTime returns an empty Bundle to be executed at t.
func NewBundleWithTime(t time.Time) *Bundle {
	return &Bundle{Timetag: NewTimetagFromTime(t)}
}

// Append appends an OSC bundle or OSC message to the bundle.
func (b *Bundle) Append(pck Packet) error {
	switch t := pck.(type) {
	default:
		return errors.Errorf("unsupported OSC packet type %T: only Bundle and Message are supported", pck)

	case *Bundle, *Message:
		b.Elements = append(b.Elements, t)
	}

	return nil
}

// MarshalBinary serializes the bundle as '#bundle', the timetag and each
// element prefixed by its length.
func (b *Bundle) MarshalBinary() ([]byte, error) {
	data := new(bytes.Buffer)
	writePaddedString(bundleTagString, data)

	var buf [bit64Size]byte
	binary.BigEndian.PutUint64(buf[:], uint64(b.Timetag))
	data.Write(buf[:])

	for _, elem := range b.Elements {
		bb, err := elem.MarshalBinary()
		if err != nil {
			return nil, err
		}

		binary.BigEndian.PutUint32(buf[:bit32Size], uint32(len(bb)))
		data.Write(buf[:bit32Size])
		data.Write(bb)
	}

	if data.Len() > MaxPacketSize {
		return nil, errors.Errorf("MarshalBinary: bundle too large: %d", data.Len())
	}

	return data.Bytes(), nil
}

// NewBundleFromData returns a new OSC bundle created from the parsed data.
func NewBundleFromData(data []byte) (*Bundle, error) {
	b := &Bundle{}
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return b, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	if (len(data) % bit32Size) != 0 {
		return errors.New("UnmarshalBinary: data isn't padded properly")
	}

	if len(data) < 16 {
		return errors.New("UnmarshalBinary: bundle is too short")
	}

	startTag, n, err := parsePaddedString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	if startTag != bundleTagString {
		return errors.Errorf("invalid bundle start tag: %s", startTag)
	}

	b.Timetag = Timetag(binary.BigEndian.Uint64(data[:bit64Size]))
	data = data[bit64Size:]
	b.Elements = nil

	for len(data) > 0 {
		if len(data) < bit32Size {
			return errors.New("UnmarshalBinary: truncated bundle element")
		}
		length := int(binary.BigEndian.Uint32(data[:bit32Size]))
		data = data[bit32Size:]
		if length < 0 || len(data) < length {
			return errors.Errorf("invalid bundle element length: %d", length)
		}

		p, err := ParsePacket(data[:length])
		if err != nil {
			return err
		}
		data = data[length:]
		b.Elements = append(b.Elements, p)
	}

	return nil
}
