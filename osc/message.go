package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Message represents a single OSC message. An OSC message consists of an OSC
// address pattern and zero or more arguments.
type Message struct {
	Address   string
	Arguments []interface{}
}

// Verify that Messages implements the Packet interface.
var _ Packet = (*Message)(nil)

// NewMessage returns a new Message. The address parameter is the OSC address.
func NewMessage(addr string, args ...interface{}) *Message {
	return &Message{Address: addr, Arguments: args}
}

// Append appends the given arguments to the arguments list.
func (m *Message) Append(args ...interface{}) error {
	if _, err := GetTypeTag(args...); err != nil {
		return err
	}
	m.Arguments = append(m.Arguments, args...)
	return nil
}

// Match returns true, if the OSC address pattern of the OSC Message matches the given
// address. The match is case sensitive!
func (m *Message) Match(addr string) bool {
	r, err := getRegEx(m.Address)
	if err != nil {
		return false
	}
	return r.FindString(addr) == addr
}

// TypeTags returns the type tag string.
func (m *Message) TypeTags() (string, error) {
	if m == nil {
		return "", errors.New("TypeTags: message is nil")
	}
	return GetTypeTag(m.Arguments...)
}

// Int32Arg returns argument i, which must be an int32.
func (m *Message) Int32Arg(i int) (int32, error) {
	if i >= len(m.Arguments) {
		return 0, errors.Errorf("%s: missing argument %d", m.Address, i)
	}
	v, ok := m.Arguments[i].(int32)
	if !ok {
		return 0, errors.Errorf("%s: argument %d is %T, not int32", m.Address, i, m.Arguments[i])
	}
	return v, nil
}

// StringArg returns argument i, which must be a string.
func (m *Message) StringArg(i int) (string, error) {
	if i >= len(m.Arguments) {
		return "", errors.Errorf("%s: missing argument %d", m.Address, i)
	}
	v, ok := m.Arguments[i].(string)
	if !ok {
		return "", errors.Errorf("%s: argument %d is %T, not string", m.Address, i, m.Arguments[i])
	}
	return v, nil
}

// String implements the fmt.Stringer interface.
func (m *Message) String() string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.Address)

	tags, err := m.TypeTags()
	if err != nil || len(m.Arguments) == 0 {
		return sb.String()
	}

	sb.WriteByte(' ')
	sb.WriteString(tags)

	for _, arg := range m.Arguments {
		switch arg := arg.(type) {
		case bool, int32, int64, float32, float64, string:
			fmt.Fprintf(&sb, " %v", arg)

		case nil:
			sb.WriteString(" Nil")

		case []byte:
			sb.WriteString(" blob")

		case Timetag:
			fmt.Fprintf(&sb, " %d", arg.TimeTag())
		}
	}

	return sb.String()
}

// MarshalBinary serializes the message as address, type tag string and
// arguments.
func (m *Message) MarshalBinary() ([]byte, error) {
	data := new(bytes.Buffer)
	if err := m.marshal(data); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

func (m *Message) marshal(data *bytes.Buffer) error {
	typetags, err := m.TypeTags()
	if err != nil {
		return errors.Wrap(err, "MarshalBinary")
	}

	writePaddedString(m.Address, data)
	writePaddedString(typetags, data)

	var buf [bit64Size]byte
	for _, arg := range m.Arguments {
		switch t := arg.(type) {
		case int32:
			binary.BigEndian.PutUint32(buf[:], uint32(t))
			data.Write(buf[:bit32Size])
		case float32:
			binary.BigEndian.PutUint32(buf[:], math.Float32bits(t))
			data.Write(buf[:bit32Size])
		case int64:
			binary.BigEndian.PutUint64(buf[:], uint64(t))
			data.Write(buf[:])
		case float64:
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(t))
			data.Write(buf[:])
		case Timetag:
			binary.BigEndian.PutUint64(buf[:], uint64(t))
			data.Write(buf[:])
		case string:
			writePaddedString(t, data)
		case []byte:
			writeBlob(t, data)
		}
	}

	if data.Len() > MaxPacketSize {
		return errors.Errorf("MarshalBinary: packet too large: %d", data.Len())
	}
	return nil
}

// NewMessageFromData parses a Message from data.
func NewMessageFromData(data []byte) (*Message, error) {
	m := &Message{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || data[0] != '/' {
		return errors.New("UnmarshalBinary: data not a valid OSC message")
	}

	if (len(data) % bit32Size) != 0 {
		return errors.New("UnmarshalBinary: data isn't mod 4")
	}

	addr, n, err := parsePaddedString(data)
	if err != nil {
		return errors.Wrap(err, "UnmarshalBinary")
	}

	m.Address = addr
	m.Arguments = nil
	if err = m.parseArguments(data[n:]); err != nil {
		return errors.Wrapf(err, "UnmarshalBinary %s", addr)
	}

	return nil
}

// parseArguments reads the type tag string and the arguments it describes.
func (m *Message) parseArguments(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	typetags, n, err := parsePaddedString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	if len(typetags) == 0 {
		return nil
	}

	// If the typetag doesn't start with ',', it's not valid
	if typetags[0] != ',' {
		return errors.Errorf("unsupported typetag string: %s", typetags)
	}

	if len(typetags) > 1 {
		m.Arguments = make([]interface{}, 0, len(typetags)-1)
	}

	need := func(size int) error {
		if len(data) < size {
			return errors.Errorf("not enough bytes to read: have %d, need %d", len(data), size)
		}
		return nil
	}

	for _, c := range typetags[1:] {
		switch TypeTag(c) {
		default:
			return errors.Errorf("unsupported typetag: %c", c)

		case TypeInt32:
			if err := need(bit32Size); err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, int32(binary.BigEndian.Uint32(data)))
			data = data[bit32Size:]

		case TypeFloat32:
			if err := need(bit32Size); err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, math.Float32frombits(binary.BigEndian.Uint32(data)))
			data = data[bit32Size:]

		case TypeInt64:
			if err := need(bit64Size); err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, int64(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeFloat64:
			if err := need(bit64Size); err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, math.Float64frombits(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeTimeTag:
			if err := need(bit64Size); err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, Timetag(binary.BigEndian.Uint64(data)))
			data = data[bit64Size:]

		case TypeString:
			str, n, err := parsePaddedString(data)
			if err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, str)
			data = data[n:]

		case TypeBlob:
			blob, n, err := parseBlob(data)
			if err != nil {
				return err
			}
			m.Arguments = append(m.Arguments, append([]byte(nil), blob...))
			data = data[min(n, len(data)):]

		case TypeNil:
			m.Arguments = append(m.Arguments, nil)

		case TypeTrue:
			m.Arguments = append(m.Arguments, true)

		case TypeFalse:
			m.Arguments = append(m.Arguments, false)
		}
	}

	return nil
}
