package log4gox

import (
	"bytes"
	"strings"
	"testing"
	"time"

	l4g "github.com/alecthomas/log4go"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]l4g.Level{
		"debug":   l4g.DEBUG,
		" INFO ":  l4g.INFO,
		"":        l4g.INFO,
		"warning": l4g.WARNING,
		"error":   l4g.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("unknown level accepted")
	}
}

func TestConsoleLogWriterPlain(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleLogWriterTo(&buf, false)
	w.LogWrite(&l4g.LogRecord{Level: l4g.WARNING, Created: time.Now(), Source: "room", Message: "[room] 输入被限流"})
	w.Close()

	out := buf.String()
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "输入被限流") {
		t.Fatalf("output = %q", out)
	}
	if strings.ContainsRune(out, colorSymbol) {
		t.Fatalf("plain output contains color codes: %q", out)
	}
}
