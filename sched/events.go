package sched

import (
	"math"
	"sort"

	"github.com/chabad360/go-scsynth/osc"
)

// Event is a list of packets due at Time, in seconds since the epoch.
type Event struct {
	Time    float64
	Packets []osc.Packet
}

// Memo carries a generator's position from one pull to the next.
type Memo struct {
	// I is the index of the next event.
	I int
	// Wrap is the loop iteration I counts from. Only looped lists use it.
	Wrap int
}

// Next returns the next event due at or after now. memo is nil on the first
// pull and afterwards is whatever the previous pull returned. ok is false
// once the sequence is exhausted.
type Next func(now float64, memo *Memo) (ev Event, next *Memo, ok bool)

func sorted(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// EventList plays events once, in time order.
func EventList(events []Event) Next {
	events = sorted(events)

	return func(now float64, memo *Memo) (Event, *Memo, bool) {
		i := 0
		if memo != nil {
			i = memo.I
		} else {
			for i < len(events) && events[i].Time < now {
				i++
			}
		}
		if i >= len(events) {
			return Event{}, nil, false
		}
		return events[i], &Memo{I: i + 1}, true
	}
}

// LoopedEventList repeats events every loopTime seconds. Events outside
// [0, loopTime) are dropped. Once started the position only grows, so the
// loop never goes back to the wall clock to find its place.
func LoopedEventList(events []Event, loopTime float64) Next {
	var clipped []Event
	for _, ev := range sorted(events) {
		if ev.Time >= 0 && ev.Time < loopTime {
			clipped = append(clipped, ev)
		}
	}
	n := len(clipped)

	at := func(iteration, i int) Event {
		ev := clipped[i]
		ev.Time += float64(iteration) * loopTime
		return ev
	}

	return func(now float64, memo *Memo) (Event, *Memo, bool) {
		if n == 0 {
			return Event{}, nil, false
		}

		if memo != nil {
			iteration := memo.Wrap + memo.I/n
			return at(iteration, memo.I%n), &Memo{I: memo.I + 1, Wrap: memo.Wrap}, true
		}

		iteration := int(math.Max(0, math.Floor(now/loopTime)))
		base := float64(iteration) * loopTime
		if now-base > clipped[n-1].Time {
			iteration++
			base += loopTime
		}

		i := 0
		for i < n && base+clipped[i].Time < now {
			i++
		}
		return at(iteration, i), &Memo{I: i + 1, Wrap: iteration}, true
	}
}
