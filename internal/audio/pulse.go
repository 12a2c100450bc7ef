package audio

import (
	"fmt"
	"net"
	"sync"

	"github.com/jfreymuth/pulse/proto"
	"github.com/sirupsen/logrus"
)

const clientName = "spotify-admute"

// PulseMuter toggles the mute switch of a PulseAudio sink.
type PulseMuter struct {
	logger *logrus.Entry
	sink   string

	mu     sync.Mutex
	client *proto.Client
	conn   net.Conn
}

// NewPulseMuter connects to the sound server named by $PULSE_SERVER, or the default one.
func NewPulseMuter(sink string, logger *logrus.Entry) (*PulseMuter, error) {
	m := &PulseMuter{
		logger: logger,
		sink:   sink,
	}
	if err := m.connect(); err != nil {
		return nil, err
	}

	logger.WithField("sink", sink).Debug("created pulse muter")
	return m, nil
}

// SetMute mutes or unmutes the sink. A failed request drops the connection so the
// next call reconnects.
func (m *PulseMuter) SetMute(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.connectLocked(); err != nil {
			return err
		}
	}

	request := proto.SetSinkMute{
		SinkIndex: proto.Undefined,
		SinkName:  m.sink,
		Mute:      muted,
	}
	if err := m.client.Request(&request, nil); err != nil {
		m.closeLocked()
		return fmt.Errorf("set mute on sink %s: %w", m.sink, err)
	}

	m.logger.WithField("muted", muted).Debug("set sink mute")
	return nil
}

// Close releases the connection to the sound server.
func (m *PulseMuter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *PulseMuter) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked()
}

func (m *PulseMuter) connectLocked() error {
	client, conn, err := proto.Connect("")
	if err != nil {
		m.logger.WithError(err).Warn("failed to establish pulseaudio connection")
		return fmt.Errorf("connect to pulseaudio: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString(clientName),
		},
	}
	if err := client.Request(&request, &proto.SetClientNameReply{}); err != nil {
		_ = conn.Close()
		m.logger.WithError(err).Warn("failed to set pulseaudio client name")
		return fmt.Errorf("set pulseaudio client name: %w", err)
	}

	m.client = client
	m.conn = conn
	return nil
}

func (m *PulseMuter) closeLocked() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.client = nil
	m.conn = nil
	if err != nil {
		return fmt.Errorf("close pulseaudio connection: %w", err)
	}
	return nil
}
