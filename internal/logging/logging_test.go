package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerVerbosity(t *testing.T) {
	color.NoColor = true

	var out, errOut bytes.Buffer
	quiet := Logger{Out: &out, Err: &errOut}
	quiet.Infof("info %d", 1)
	quiet.Debugf("debug %d", 2)
	quiet.Warnf("warn %d", 3)
	quiet.Errorf("error %d", 4)
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Fatalf("quiet logger wrote output: stdout=%q stderr=%q", out.String(), errOut.String())
	}

	quiet.WarnfAlways("degraded %s", "consensus")
	if !strings.Contains(errOut.String(), "[warn] degraded consensus") {
		t.Errorf("WarnfAlways output missing, got %q", errOut.String())
	}

	out.Reset()
	errOut.Reset()
	loud := Logger{Debug: true, Out: &out, Err: &errOut}
	loud.Debugf("round %s", "abc")
	loud.Errorf("source %s failed", "binance")
	if !strings.Contains(out.String(), "[debug] round abc") {
		t.Errorf("Debugf output missing, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[error] source binance failed") {
		t.Errorf("Errorf output missing, got %q", errOut.String())
	}
}

func TestErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}
	err := l.ErrorfAndReturn("failed to load config: %v", "boom")
	if err == nil || err.Error() != "failed to load config: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("non-debug logger should not print errors, got %q", errOut.String())
	}
}
