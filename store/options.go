package store

import (
	"github.com/pkg/errors"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid server options")

// Options describes the resource spaces of one scsynth instance. The
// defaults match scsynth's own.
type Options struct {
	NumAudioBusChannels   int `yaml:"numAudioBusChannels"`
	NumInputBusChannels   int `yaml:"numInputBusChannels"`
	NumOutputBusChannels  int `yaml:"numOutputBusChannels"`
	NumControlBusChannels int `yaml:"numControlBusChannels"`
	NumBuffers            int `yaml:"numBuffers"`
	InitialNodeID         int `yaml:"initialNodeID"`
}

// DefaultOptions returns the scsynth defaults.
func DefaultOptions() Options {
	return Options{
		NumAudioBusChannels:   1024,
		NumInputBusChannels:   8,
		NumOutputBusChannels:  8,
		NumControlBusChannels: 16384,
		NumBuffers:            1024,
		InitialNodeID:         1000,
	}
}

// ReservedChannels is the number of audio bus channels wired to hardware
// inputs and outputs. They occupy the start of the audio bus space.
func (o Options) ReservedChannels() int {
	return o.NumInputBusChannels + o.NumOutputBusChannels
}

// Validate checks that every count is usable.
func (o Options) Validate() error {
	switch {
	case o.NumAudioBusChannels < 1:
		return errors.Wrapf(ErrInvalidOptions, "numAudioBusChannels %d", o.NumAudioBusChannels)
	case o.NumInputBusChannels < 0, o.NumOutputBusChannels < 0:
		return errors.Wrapf(ErrInvalidOptions, "i/o channels %d/%d", o.NumInputBusChannels, o.NumOutputBusChannels)
	case o.ReservedChannels() < 1:
		return errors.Wrap(ErrInvalidOptions, "no i/o channels")
	case o.ReservedChannels() >= o.NumAudioBusChannels:
		return errors.Wrapf(ErrInvalidOptions, "%d i/o channels leave no private audio buses out of %d",
			o.ReservedChannels(), o.NumAudioBusChannels)
	case o.NumControlBusChannels < 1:
		return errors.Wrapf(ErrInvalidOptions, "numControlBusChannels %d", o.NumControlBusChannels)
	case o.NumBuffers < 1:
		return errors.Wrapf(ErrInvalidOptions, "numBuffers %d", o.NumBuffers)
	case o.InitialNodeID < 0:
		return errors.Wrapf(ErrInvalidOptions, "initialNodeID %d", o.InitialNodeID)
	}
	return nil
}
