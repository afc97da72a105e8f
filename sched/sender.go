package sched

import (
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/go-scsynth/osc"
)

// PacketWriter sends OSC packets. *osc.Client implements it.
type PacketWriter interface {
	Send(packet osc.Packet) error
}

// BundleSender returns a Sender that wraps each event's packets in one
// bundle timetagged at epoch() plus the event offset.
func BundleSender(w PacketWriter, epoch func() time.Time) Sender {
	return func(offset float64, packets []osc.Packet) error {
		at := epoch().Add(time.Duration(offset * float64(time.Second)))
		b := osc.NewBundle(osc.NewTimetagFromTime(at), packets...)
		return errors.Wrapf(w.Send(b), "send bundle at %.3fs", offset)
	}
}
