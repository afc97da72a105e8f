package osc

import (
	"testing"
	"time"
)

func TestNewImmediateTimetag(t *testing.T) {
	tt := NewImmediateTimetag()
	if i := tt.ExpiresIn(); i != 0 {
		t.Errorf("NewImmediateTimetag().ExpiresIn() = %d, want 0", i)
	}
}

func TestNewTimetagFromTime(t *testing.T) {
	tt := NewTimetagFromTime(time.Now().Add(time.Second))
	if i := tt.ExpiresIn(); i.Round(10*time.Millisecond) != time.Second {
		t.Errorf("ExpiresIn() = %v, want %v", i, time.Second)
	}
}

func TestTimetag_ExpiresIn(t *testing.T) {
	tests := []struct {
		name string
		t    Timetag
		want time.Duration
	}{
		{"one_second", NewTimetagFromTime(time.Now().Add(time.Second)), time.Second},
		{"immediate", NewImmediateTimetag(), 0},
		{"late", NewTimetagFromTime(time.Now().Add(-time.Second)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.ExpiresIn(); got.Round(10*time.Millisecond) != tt.want {
				t.Errorf("ExpiresIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimetag_Fields(t *testing.T) {
	// 1970-01-01T00:00:00.5Z
	tt := NewTimetagFromTime(time.Unix(0, int64(500*time.Millisecond)))
	if got := tt.SecondsSinceEpoch(); got != secondsFrom1900To1970 {
		t.Errorf("SecondsSinceEpoch() = %d, want %d", got, uint32(secondsFrom1900To1970))
	}
	if got := tt.FractionalSecond(); got != 1<<31 {
		t.Errorf("FractionalSecond() = %d, want %d", got, uint32(1<<31))
	}
}

func TestTimetag_RoundTrip(t *testing.T) {
	for _, ts := range []time.Time{
		time.Unix(0, 0),
		time.Unix(1700000000, 1),
		time.Unix(1700000000, 123456789),
		time.Unix(1700000000, 999999999),
	} {
		var tt Timetag
		tt.SetTime(ts)
		if got := tt.Time(); !got.Equal(ts) {
			t.Errorf("Time() = %v, want %v", got, ts)
		}
	}
}

func TestTimetag_MarshalBinary(t *testing.T) {
	b, err := Timetag(0x0102030405060708).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if want := "\x01\x02\x03\x04\x05\x06\x07\x08"; string(b) != want {
		t.Errorf("MarshalBinary() = %q, want %q", b, want)
	}
}
