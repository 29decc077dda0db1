package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		log   func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("graph ready") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("stage finished") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("stage finished") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("cache write failed") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLogger_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("graph ready")
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("missing HH:MM:SS.ms prefix: %q", buf.String())
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Extracted 2 walks")

	out := buf.String()
	if !strings.Contains(out, "Extracted 2 walks (") || !strings.Contains(out, "s)") {
		t.Errorf("done() = %q, want message with elapsed time", out)
	}
}
