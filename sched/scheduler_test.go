package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/chabad360/go-scsynth/osc"
)

type recorder struct {
	mu    sync.Mutex
	times []float64
}

func (r *recorder) send(offset float64, _ []osc.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, offset)
	return nil
}

func (r *recorder) sent() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.times...)
}

// newScheduler logs nowhere: timer callbacks may still be logging when a
// test returns.
func newScheduler(t *testing.T) (*Scheduler, *clock.Mock, *recorder) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &recorder{}
	s := New(rec.send,
		WithClock(mock),
		WithLatency(50*time.Millisecond),
		WithLogger(zap.NewNop()))
	return s, mock, rec
}

func TestScheduleLoop_MissingEpoch(t *testing.T) {
	s, _, _ := newScheduler(t)

	err := s.ScheduleLoop(EventList(times(1)), time.Time{})
	assert.True(t, errors.Is(err, ErrMissingEpoch))
	assert.True(t, errors.Is(s.Reschedule(EventList(times(1))), ErrMissingEpoch))
	assert.False(t, s.Armed())
}

func TestScheduleLoop_SendsWithinLatency(t *testing.T) {
	s, mock, rec := newScheduler(t)

	require.NoError(t, s.ScheduleLoop(EventList(times(0.01)), mock.Now()))
	assert.Equal(t, []float64{0.01}, rec.sent())
	assert.False(t, s.Armed())
}

func TestScheduleLoop_ArmsTimer(t *testing.T) {
	s, mock, rec := newScheduler(t)

	require.NoError(t, s.ScheduleLoop(EventList(times(1.0)), mock.Now()))
	assert.Empty(t, rec.sent())
	assert.True(t, s.Armed())

	mock.Add(900 * time.Millisecond)
	assert.Empty(t, rec.sent())

	mock.Add(50 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.sent()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []float64{1.0}, rec.sent())
	require.Eventually(t, func() bool { return !s.Armed() }, time.Second, time.Millisecond)
}

func TestScheduleLoop_Sequence(t *testing.T) {
	s, mock, rec := newScheduler(t)

	require.NoError(t, s.ScheduleLoop(EventList(times(0.01, 0.02, 1.0, 2.0)), mock.Now()))
	assert.Equal(t, []float64{0.01, 0.02}, rec.sent())
	assert.True(t, s.Armed())

	mock.Add(950 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.sent()) == 3 && s.Armed() }, time.Second, time.Millisecond)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return len(rec.sent()) == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, []float64{0.01, 0.02, 1.0, 2.0}, rec.sent())
}

func TestScheduleLoop_DropsLateEvents(t *testing.T) {
	s, mock, rec := newScheduler(t)

	var pulls []float64
	evs := times(-1, -0.5, 0.02)
	next := func(now float64, memo *Memo) (Event, *Memo, bool) {
		pulls = append(pulls, now)
		i := 0
		if memo != nil {
			i = memo.I
		}
		if i >= len(evs) {
			return Event{}, nil, false
		}
		return evs[i], &Memo{I: i + 1}, true
	}

	require.NoError(t, s.ScheduleLoop(next, mock.Now()))
	assert.Equal(t, []float64{0.02}, rec.sent())
	// Logical time follows the events, not the wall clock.
	assert.Equal(t, []float64{0, -1, -0.5, 0.02}, pulls)
}

func TestReschedule_ReplacesTimer(t *testing.T) {
	s, mock, rec := newScheduler(t)
	epoch := mock.Now()

	require.NoError(t, s.ScheduleLoop(EventList(times(1.0)), epoch))
	require.True(t, s.Armed())

	require.NoError(t, s.Reschedule(EventList(times(3.0))))
	assert.Equal(t, epoch, s.Epoch())
	assert.True(t, s.Armed())

	mock.Add(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, rec.sent())

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return len(rec.sent()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []float64{3.0}, rec.sent())
}

func TestStop(t *testing.T) {
	s, mock, rec := newScheduler(t)

	require.NoError(t, s.ScheduleLoop(EventList(times(1.0)), mock.Now()))
	s.Stop()
	s.Stop()
	assert.False(t, s.Armed())

	mock.Add(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, rec.sent())
}

func TestScheduleLoop_Looped(t *testing.T) {
	s, mock, rec := newScheduler(t)

	require.NoError(t, s.ScheduleLoop(LoopedEventList(times(0.01, 0.5), 1), mock.Now()))
	assert.Equal(t, []float64{0.01}, rec.sent())

	for i := 1; i <= 4; i++ {
		mock.Add(500 * time.Millisecond)
		want := i + 1
		require.Eventually(t, func() bool { return len(rec.sent()) == want && s.Armed() }, time.Second, time.Millisecond)
	}
	assert.Equal(t, []float64{0.01, 0.5, 1.01, 1.5, 2.01}, rec.sent())
	s.Stop()
}

func TestScheduleLoop_SendError(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	n := 0
	s := New(func(float64, []osc.Packet) error {
		n++
		return errors.New("network down")
	}, WithClock(mock), WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, s.ScheduleLoop(EventList(times(0.01, 0.02)), mock.Now()))
	assert.Equal(t, 2, n)
}

type packetRecorder struct {
	packets []osc.Packet
}

func (p *packetRecorder) Send(packet osc.Packet) error {
	p.packets = append(p.packets, packet)
	return nil
}

func TestBundleSender(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := &packetRecorder{}
	send := BundleSender(w, func() time.Time { return epoch })

	msg := osc.NewMessage("/s_new", "sine", int32(1001))
	require.NoError(t, send(1.5, []osc.Packet{msg}))
	require.Len(t, w.packets, 1)

	b, ok := w.packets[0].(*osc.Bundle)
	require.True(t, ok)
	assert.WithinDuration(t, epoch.Add(1500*time.Millisecond), b.Timetag.Time(), time.Millisecond)
	assert.Equal(t, []osc.Packet{msg}, b.Elements)
}
