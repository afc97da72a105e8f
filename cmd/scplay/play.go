package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chabad360/go-scsynth/lifecycle"
	"github.com/chabad360/go-scsynth/osc"
	"github.com/chabad360/go-scsynth/sched"
	"github.com/chabad360/go-scsynth/store"
)

var (
	playLoop    float64
	playLatency time.Duration
	playTimeout time.Duration
)

func init() {
	cmd := newPlayCmd()
	cmd.Flags().Float64Var(&playLoop, "loop", 0, "Repeat the score every N seconds (overrides the score)")
	cmd.Flags().DurationVar(&playLatency, "latency", sched.DefaultLatency, "Send events this far ahead")
	cmd.Flags().DurationVar(&playTimeout, "timeout", 5*time.Second, "Wait this long for the group to start")
	rootCmd.AddCommand(cmd)
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <score.yaml>",
		Short: "Play a score",
		Long: `The play command creates a group on the server, waits for it to start and
then plays the score's events inside it. "$group" in message arguments is
replaced by the group's node ID. Looped scores play until interrupted.

Example:
  scplay play score.yaml
  scplay play score.yaml --loop 4 --latency 100ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFlags(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("latency") {
				cfg.Latency = playLatency
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = playTimeout
			}

			score, err := loadScore(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("loop") {
				score.Loop = playLoop
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return play(ctx, cfg, score, log)
		},
	}
}

// session is one connection to a server.
type session struct {
	client *osc.Client
	store  *store.Store
	nodes  *lifecycle.Registry
	addr   string
	log    *zap.Logger
}

func dial(cfg Config, log *zap.Logger) (*session, error) {
	client, err := osc.Dial(cfg.Server, osc.WithClientLogger(log))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.Server)
	}

	addr := client.RemoteAddr().String()
	st := store.New(store.WithOptions(cfg.Options), store.WithLogger(log))
	if err := st.Reset(addr); err != nil {
		client.Close()
		return nil, err
	}

	s := &session{
		client: client,
		store:  st,
		nodes:  lifecycle.New(st, addr, lifecycle.WithLogger(log)),
		addr:   addr,
		log:    log.With(zap.String("server", addr)),
	}

	d := &osc.Dispatcher{Logger: log}
	if err := s.nodes.Attach(d); err != nil {
		client.Close()
		return nil, err
	}
	go func() {
		if err := client.Listen(d); err != nil {
			s.log.Error("listen", zap.Error(err))
		}
	}()

	if err := client.Send(osc.NewMessage("/notify", int32(1))); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "register for notifications")
	}
	return s, nil
}

func (s *session) Close() error {
	return s.client.Close()
}

// newGroup creates a group at the head of the default group and waits for
// the server to confirm it.
func (s *session) newGroup(ctx context.Context, timeout time.Duration) (int32, error) {
	id := s.store.NextNodeID(s.addr)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	started := s.nodes.WhenGo(ctx, id)

	if err := s.client.Send(osc.NewMessage("/g_new", id, int32(0), int32(1))); err != nil {
		return 0, errors.Wrapf(err, "create group %d", id)
	}

	select {
	case <-started:
		s.log.Info("group started", zap.Int32("group", id))
		return id, nil
	case <-ctx.Done():
		return 0, errors.Wrapf(ctx.Err(), "group %d did not start", id)
	}
}

// freeGroup frees the group and its children and waits briefly for the
// server to confirm.
func (s *session) freeGroup(id int32, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ended := s.nodes.WhenEnd(ctx, id)

	if err := s.client.Send(osc.NewMessage("/n_free", id)); err != nil {
		s.log.Error("free group", zap.Int32("group", id), zap.Error(err))
		return
	}

	select {
	case <-ended:
		s.log.Info("group ended", zap.Int32("group", id))
	case <-ctx.Done():
		s.log.Warn("group end not confirmed", zap.Int32("group", id))
	}
}

func play(ctx context.Context, cfg Config, score Score, log *zap.Logger) error {
	s, err := dial(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	group, err := s.newGroup(ctx, cfg.Timeout)
	if err != nil {
		return err
	}
	defer s.freeGroup(group, cfg.Timeout)

	events, err := score.Build(group)
	if err != nil {
		return err
	}

	next := sched.EventList(events)
	if score.Loop > 0 {
		next = sched.LoopedEventList(events, score.Loop)
	}

	// Leave room for events at time zero to go out inside the latency window.
	epoch := time.Now().Add(2 * cfg.Latency)
	sender := sched.BundleSender(s.client, func() time.Time { return epoch })
	scheduler := sched.New(sender, sched.WithLatency(cfg.Latency), sched.WithLogger(s.log))
	if err := scheduler.ScheduleLoop(next, epoch); err != nil {
		return err
	}
	defer scheduler.Stop()

	s.log.Info("playing",
		zap.Int("events", len(events)),
		zap.Float64("loop", score.Loop),
		zap.Duration("latency", cfg.Latency))

	if score.Loop > 0 {
		<-ctx.Done()
		return nil
	}

	end := time.Until(epoch.Add(time.Duration(score.Duration()*float64(time.Second)) + cfg.Latency))
	select {
	case <-ctx.Done():
	case <-time.After(end):
	}
	return nil
}
