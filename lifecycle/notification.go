package lifecycle

import (
	"github.com/pkg/errors"

	"github.com/chabad360/go-scsynth/osc"
)

var (
	// ErrUnknownKind is returned for addresses that are not node notifications.
	ErrUnknownKind = errors.New("unknown notification kind")
	// ErrMalformedNotification is returned when the arguments do not match
	// the notification layout.
	ErrMalformedNotification = errors.New("malformed node notification")
)

// Kind identifies a node notification sent by scsynth.
type Kind int

const (
	Go Kind = iota
	End
	On
	Off
	Move
	Info
)

var kindAddrs = [...]string{
	Go:   "/n_go",
	End:  "/n_end",
	On:   "/n_on",
	Off:  "/n_off",
	Move: "/n_move",
	Info: "/n_info",
}

// Kinds lists every notification kind.
var Kinds = []Kind{Go, End, On, Off, Move, Info}

// String returns the OSC address of k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindAddrs) {
		return "/n_?"
	}
	return kindAddrs[k]
}

// KindOf returns the Kind for an OSC address.
func KindOf(addr string) (Kind, error) {
	for k, a := range kindAddrs {
		if a == addr {
			return Kind(k), nil
		}
	}
	return 0, errors.Wrap(ErrUnknownKind, addr)
}

// Notification is one node notification:
//
//	[kind, nodeID, parentID, prevID, nextID, isGroup, (headID, tailID)?]
//
// Head and tail are only sent for groups. -1 means "none".
type Notification struct {
	Kind     Kind
	NodeID   int32
	ParentID int32
	PrevID   int32
	NextID   int32
	IsGroup  bool
	HeadID   int32
	TailID   int32
}

// ParseNotification decodes a node notification message.
func ParseNotification(msg *osc.Message) (Notification, error) {
	kind, err := KindOf(msg.Address)
	if err != nil {
		return Notification{}, err
	}

	var fields [5]int32
	for i := range fields {
		if fields[i], err = msg.Int32Arg(i); err != nil {
			return Notification{}, errors.Wrap(ErrMalformedNotification, err.Error())
		}
	}

	n := Notification{
		Kind:     kind,
		NodeID:   fields[0],
		ParentID: fields[1],
		PrevID:   fields[2],
		NextID:   fields[3],
		IsGroup:  fields[4] == 1,
		HeadID:   -1,
		TailID:   -1,
	}
	if !n.IsGroup {
		return n, nil
	}

	if n.HeadID, err = msg.Int32Arg(5); err != nil {
		return Notification{}, errors.Wrap(ErrMalformedNotification, err.Error())
	}
	if n.TailID, err = msg.Int32Arg(6); err != nil {
		return Notification{}, errors.Wrap(ErrMalformedNotification, err.Error())
	}
	return n, nil
}
