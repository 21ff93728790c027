package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorsGoToErrorWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, zerolog.DebugLevel)

	l.Info("info %d", 1)
	l.Warn("warn %d", 2)
	l.Debug("debug %d", 3)
	l.Error("error %d", 4)

	for _, want := range []string{"info 1", "warn 2", "debug 3"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q: %s", want, out.String())
		}
		if strings.Contains(errOut.String(), want) {
			t.Errorf("stderr got %q", want)
		}
	}
	if !strings.Contains(errOut.String(), "error 4") || strings.Contains(out.String(), "error 4") {
		t.Errorf("error line misrouted: stdout=%q stderr=%q", out.String(), errOut.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, zerolog.InfoLevel)

	l.Debug("hidden")
	l.SetLevel("DEBUG")
	l.Debug("shown")
	l.SetLevel("nonsense")
	l.Debug("still shown")
	l.SetLevel("error")
	l.Warn("dropped")
	l.Error("kept")

	got := out.String()
	if strings.Contains(got, "hidden") || !strings.Contains(got, "shown") || !strings.Contains(got, "still shown") {
		t.Errorf("debug output = %q", got)
	}
	if strings.Contains(got, "dropped") {
		t.Error("warn logged above error level")
	}
	if !strings.Contains(errOut.String(), "kept") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
