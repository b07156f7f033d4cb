package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mangapdf/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog so callers don't depend on it directly.
type Logger interface {
	Log() *zerolog.Event
	Fatal() *zerolog.Event
	Error() *zerolog.Event
	Err(err error) *zerolog.Event
	Warn() *zerolog.Event
	Info() *zerolog.Event
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	With() zerolog.Context
	SetLogLevel(level string)
}

// DefaultLogger is safe for concurrent use. SetLogLevel may be called by the
// config watcher while other goroutines are logging.
type DefaultLogger struct {
	mu      sync.RWMutex
	log     zerolog.Logger
	level   zerolog.Level
	writers []io.Writer
}

func New(cfg *domain.Config) *DefaultLogger {
	l := &DefaultLogger{
		level: zerolog.DebugLevel,
	}

	zerolog.TimeFieldFormat = time.RFC3339

	// logs go to stderr so stdout stays free for user facing output
	l.writers = append(l.writers, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	})

	if cfg.LogPath != "" {
		l.writers = append(l.writers, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
		})
	}

	l.log = zerolog.New(io.MultiWriter(l.writers...)).With().Timestamp().Logger()
	l.SetLogLevel(cfg.LogLevel)

	return l
}

// Nop returns a logger that discards everything.
func Nop() *DefaultLogger {
	return &DefaultLogger{
		log:   zerolog.Nop(),
		level: zerolog.Disabled,
	}
}

func (l *DefaultLogger) SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = lvl
	l.log = l.log.Level(lvl)
}

func (l *DefaultLogger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	log := l.log
	return &log
}

// Log logs a new message with no level
func (l *DefaultLogger) Log() *zerolog.Event {
	return l.logger().Log()
}

func (l *DefaultLogger) Fatal() *zerolog.Event {
	return l.logger().Fatal()
}

func (l *DefaultLogger) Err(err error) *zerolog.Event {
	return l.logger().Err(err)
}

func (l *DefaultLogger) Error() *zerolog.Event {
	return l.logger().Error()
}

func (l *DefaultLogger) Warn() *zerolog.Event {
	return l.logger().Warn()
}

func (l *DefaultLogger) Info() *zerolog.Event {
	return l.logger().Info()
}

func (l *DefaultLogger) Debug() *zerolog.Event {
	return l.logger().Debug()
}

func (l *DefaultLogger) Trace() *zerolog.Event {
	return l.logger().Trace()
}

// With creates a child logger
func (l *DefaultLogger) With() zerolog.Context {
	return l.logger().With()
}
