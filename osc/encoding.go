package osc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// MaxPacketSize is the largest payload of a UDP datagram.
	MaxPacketSize = 65507

	bit32Size = 4
	bit64Size = 8

	secondsFrom1900To1970 = 2208988800

	bundleTagString = "#bundle"
)

var zeros [bit32Size]byte

////
// De/Encoding functions
////

// parsePaddedString reads a null terminated, padded string from data and
// returns the string and the number of bytes consumed.
func parsePaddedString(data []byte) (string, int, error) {
	pos := bytes.IndexByte(data, 0)
	if pos == -1 {
		return "", 0, errors.Wrap(io.EOF, "parsePaddedString")
	}

	n := pos + 1 + padBytesNeeded(pos+1)
	if n > len(data) {
		n = len(data)
	}
	return string(data[:pos]), n, nil
}

// writePaddedString writes str, its terminating null and padding to b.
// Returns the number of bytes written.
func writePaddedString(str string, b *bytes.Buffer) int {
	n, _ := b.WriteString(str)
	pad := 1 + padBytesNeeded(n+1)
	b.Write(zeros[:pad])
	return n + pad
}

// parseBlob reads an OSC blob from data. Padding bytes are consumed but not
// returned.
func parseBlob(data []byte) ([]byte, int, error) {
	if len(data) < bit32Size {
		return nil, 0, errors.New("parseBlob: missing length")
	}
	blobLen := int(binary.BigEndian.Uint32(data[:bit32Size]))
	data = data[bit32Size:]

	if blobLen < 0 || blobLen > len(data) {
		return nil, 0, errors.Errorf("parseBlob: invalid blob length %d", blobLen)
	}

	n := bit32Size + blobLen
	return data[:blobLen], n + padBytesNeeded(n), nil
}

// writeBlob writes data as an OSC blob into b, padded to 32 bits.
func writeBlob(data []byte, b *bytes.Buffer) int {
	var size [bit32Size]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	b.Write(size[:])
	b.Write(data)

	n := bit32Size + len(data)
	pad := padBytesNeeded(n)
	b.Write(zeros[:pad])
	return n + pad
}

// padBytesNeeded determines how many bytes are needed to fill up to the next 4
// byte length.
func padBytesNeeded(elementLen int) int {
	return (4 - (elementLen % 4)) % 4
}
