package notify

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNew(t *testing.T) {
	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	if _, ok := New(true, entry).(*DesktopNotifier); !ok {
		t.Error("New(true) is not a desktop notifier")
	}
	if _, ok := New(false, entry).(*LogNotifier); !ok {
		t.Error("New(false) is not a log notifier")
	}
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()

	New(false, logrus.NewEntry(logger)).Notify("Error", "check the log")

	last := hook.LastEntry()
	if last == nil {
		t.Fatal("no log entry written")
	}
	if last.Level != logrus.WarnLevel || last.Message != "check the log" || last.Data["title"] != "Error" {
		t.Fatalf("entry = %v %q %v", last.Level, last.Message, last.Data)
	}
}
