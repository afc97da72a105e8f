package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/chabad360/go-scsynth/osc"
	"github.com/chabad360/go-scsynth/sched"
	"github.com/chabad360/go-scsynth/store"
)

const defaultServer = "127.0.0.1:57110"

// Config is the scplay config file.
type Config struct {
	Server  string        `yaml:"server"`
	Latency time.Duration `yaml:"latency"`
	// Timeout bounds the wait for the server to confirm a new node.
	Timeout time.Duration `yaml:"timeout"`
	Options store.Options `yaml:"options"`
}

func defaultConfig() Config {
	return Config{
		Server:  defaultServer,
		Latency: sched.DefaultLatency,
		Timeout: 5 * time.Second,
		Options: store.DefaultOptions(),
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Options.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	if cfg.Latency < 0 || cfg.Timeout <= 0 {
		return Config{}, errors.Errorf("config %s: latency %s, timeout %s", path, cfg.Latency, cfg.Timeout)
	}
	return cfg, nil
}

// groupArg is replaced by the ID of the group the score plays in.
const groupArg = "$group"

// Score is a list of timed OSC messages.
type Score struct {
	// Loop repeats the score every Loop seconds when positive.
	Loop   float64      `yaml:"loop"`
	Events []ScoreEvent `yaml:"events"`
}

// ScoreEvent is a group of messages due at Time seconds.
type ScoreEvent struct {
	Time     float64        `yaml:"time"`
	Messages []ScoreMessage `yaml:"messages"`
}

// ScoreMessage is one OSC message. Integers are sent as int32 and floats as
// float32.
type ScoreMessage struct {
	Address string        `yaml:"address"`
	Args    []interface{} `yaml:"args"`
}

func loadScore(path string) (Score, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Score{}, errors.Wrap(err, "read score")
	}

	var s Score
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Score{}, errors.Wrapf(err, "parse score %s", path)
	}
	if s.Loop < 0 {
		return Score{}, errors.Errorf("score %s: negative loop %v", path, s.Loop)
	}
	return s, nil
}

// Build converts the score into scheduler events for the given group.
func (s Score) Build(group int32) ([]sched.Event, error) {
	events := make([]sched.Event, 0, len(s.Events))
	for i, se := range s.Events {
		ev := sched.Event{Time: se.Time}
		for _, sm := range se.Messages {
			msg := osc.NewMessage(sm.Address)
			for _, a := range sm.Args {
				arg, err := convertArg(a, group)
				if err != nil {
					return nil, errors.Wrapf(err, "event %d: %s", i, sm.Address)
				}
				if err := msg.Append(arg); err != nil {
					return nil, errors.Wrapf(err, "event %d", i)
				}
			}
			ev.Packets = append(ev.Packets, msg)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Duration is the time of the last event.
func (s Score) Duration() float64 {
	var d float64
	for _, ev := range s.Events {
		if ev.Time > d {
			d = ev.Time
		}
	}
	return d
}

func convertArg(a interface{}, group int32) (interface{}, error) {
	switch v := a.(type) {
	case int:
		return int32(v), nil
	case float64:
		return float32(v), nil
	case string:
		if v == groupArg {
			return group, nil
		}
		return v, nil
	case bool:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported argument %v (%T)", a, a)
	}
}
