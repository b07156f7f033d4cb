package logger

import (
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "upper case", level: "DEBUG", expected: zerolog.DebugLevel},
		{name: "lower case", level: "warn", expected: zerolog.WarnLevel},
		{name: "trace", level: "TRACE", expected: zerolog.TraceLevel},
		{name: "empty falls back to info", level: "", expected: zerolog.InfoLevel},
		{name: "unknown falls back to info", level: "LOUD", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Nop()
			l.SetLogLevel(tt.level)

			if l.level != tt.expected {
				t.Errorf("Expected level %s, got %s", tt.expected, l.level)
			}
		})
	}
}

func TestSetLogLevelWhileLogging(t *testing.T) {
	l := &DefaultLogger{log: zerolog.New(io.Discard)}
	l.SetLogLevel("INFO")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if i%2 == 0 {
				l.SetLogLevel("DEBUG")
			} else {
				l.SetLogLevel("WARN")
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.Info().Int("i", i).Msg("page")
			sub := l.With().Str("chapter", "1").Logger()
			sub.Debug().Msg("page")
		}
	}()

	wg.Wait()

	l.SetLogLevel("ERROR")
	if l.level != zerolog.ErrorLevel {
		t.Errorf("Expected level %s, got %s", zerolog.ErrorLevel, l.level)
	}
}
