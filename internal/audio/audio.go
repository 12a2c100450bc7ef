// Package audio mutes and unmutes the default output device.
package audio

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	BackendPulse = "pulse" // PulseAudio or PipeWire's pulse server
	BackendNone  = "none"  // log only, leaves the output untouched

	// DefaultSink names whatever sink the sound server currently uses for output.
	DefaultSink = "@DEFAULT_SINK@"
)

// Muter controls the mute switch of a single output.
type Muter interface {
	SetMute(muted bool) error
	Close() error
}

// New returns the Muter for the configured backend.
func New(backend, sink string, logger *logrus.Entry) (Muter, error) {
	if sink == "" {
		sink = DefaultSink
	}

	switch strings.ToLower(backend) {
	case BackendPulse, "":
		return NewPulseMuter(sink, logger)
	case BackendNone:
		return NewLogMuter(logger), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

// LogMuter only records what it was asked to do.
type LogMuter struct {
	logger *logrus.Entry
	muted  bool
}

// NewLogMuter creates a LogMuter.
func NewLogMuter(logger *logrus.Entry) *LogMuter {
	logger.Debug("created log-only muter")
	return &LogMuter{logger: logger}
}

func (m *LogMuter) SetMute(muted bool) error {
	if muted != m.muted {
		m.logger.WithField("muted", muted).Info("would set mute")
	}
	m.muted = muted
	return nil
}

// Muted reports the last requested mute state.
func (m *LogMuter) Muted() bool {
	return m.muted
}

func (m *LogMuter) Close() error {
	return nil
}
