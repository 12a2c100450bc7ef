package audio

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestNew_LogBackend(t *testing.T) {
	muter, err := New("None", "", testLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logMuter, ok := muter.(*LogMuter)
	if !ok {
		t.Fatalf("New returned %T, want *LogMuter", muter)
	}

	if err := logMuter.SetMute(true); err != nil {
		t.Fatalf("SetMute returned error: %v", err)
	}
	if !logMuter.Muted() {
		t.Fatal("Muted() = false after SetMute(true)")
	}
	if err := logMuter.SetMute(false); err != nil {
		t.Fatalf("SetMute returned error: %v", err)
	}
	if logMuter.Muted() {
		t.Fatal("Muted() = true after SetMute(false)")
	}
	if err := muter.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New("alsa", "", testLogger()); err == nil {
		t.Fatal("New accepted an unknown backend")
	}
}

func TestPulseMuter_CloseWithoutConnection(t *testing.T) {
	m := &PulseMuter{logger: testLogger(), sink: DefaultSink}
	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
