package debug

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogCategory(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, logrus.DebugLevel)
	defer SetOutput(io.Discard, logrus.InfoLevel)

	Log("transport", "tick=%d", 4)
	out := buf.String()
	if !strings.Contains(out, "category=transport") || !strings.Contains(out, "tick=4") {
		t.Errorf("log output = %q", out)
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, logrus.DebugLevel)
	defer SetOutput(io.Discard, logrus.InfoLevel)

	for i := 0; i < 10; i++ {
		LogEvery(5, "frame", "update")
	}
	if n := strings.Count(buf.String(), "update (every 5"); n != 2 {
		t.Errorf("logged %d times, want 2:\n%s", n, buf.String())
	}
}

func TestEnable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path, "nonsense"); err == nil {
		t.Error("Enable accepted an unknown level")
	}
	if err := Enable(path, "debug"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	Disable()
}
