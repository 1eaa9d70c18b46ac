package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("warn")
	defer func() {
		Init("info")
	}()

	Info("msg", "hidden")
	Warn("msg", "shown", "p", 7.5)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", got)
	}
	if !strings.Contains(got, "msg=shown") || !strings.Contains(got, "level=warn") {
		t.Errorf("expected warn line, got %q", got)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("debug")
	defer Init("info")

	_ = With("model", "pn_leading").Log("msg", "step")
	if !strings.Contains(buf.String(), "model=pn_leading") {
		t.Errorf("expected bound key, got %q", buf.String())
	}
}
