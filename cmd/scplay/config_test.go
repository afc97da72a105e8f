package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chabad360/go-scsynth/osc"
	"github.com/chabad360/go-scsynth/store"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	cfg, err = loadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Server:  "127.0.0.1:57120",
		Latency: 100 * time.Millisecond,
		Timeout: 2 * time.Second,
		Options: store.Options{
			NumAudioBusChannels:   128,
			NumInputBusChannels:   2,
			NumOutputBusChannels:  2,
			NumControlBusChannels: 4096,
			NumBuffers:            256,
			InitialNodeID:         2000,
		},
	}, cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join("testdata", "bad_config.yaml"))
	assert.True(t, errors.Is(err, store.ErrInvalidOptions), "got %v", err)

	_, err = loadConfig(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestScore_Build(t *testing.T) {
	score, err := loadScore(filepath.Join("testdata", "score.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, score.Duration())

	events, err := score.Build(1001)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, 0.5, events[0].Time)
	assert.Equal(t, []osc.Packet{
		osc.NewMessage("/s_new", "default", int32(-1), int32(0), int32(1001), "freq", float32(330)),
	}, events[0].Packets)

	assert.Equal(t, 0.0, events[1].Time)
	assert.Equal(t, []osc.Packet{
		osc.NewMessage("/s_new", "default", int32(-1), int32(0), int32(1001), "freq", float32(220)),
		osc.NewMessage("/n_set", int32(1001), "gate", int32(1)),
	}, events[1].Packets)
}

func TestScore_BuildUnsupportedArg(t *testing.T) {
	s := Score{Events: []ScoreEvent{{
		Messages: []ScoreMessage{{Address: "/x", Args: []interface{}{map[string]interface{}{"a": 1}}}},
	}}}
	_, err := s.Build(1)
	assert.Error(t, err)
}

func TestRunAlloc(t *testing.T) {
	cfg, err := loadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runAlloc(&out, cfg, []int{2, 8}))

	want := strings.Join([]string{
		"allocated 2 audio channels at 4",
		"allocated 8 audio channels at 6",
		"audioBuses    [14,128)",
		"controlBuses  [0,4096)",
		"buffers       [0,256)",
		"nextNodeID    2001",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestRunAlloc_Exhausted(t *testing.T) {
	cfg := defaultConfig()
	var out bytes.Buffer
	err := runAlloc(&out, cfg, []int{2048})
	assert.Error(t, err)
}
