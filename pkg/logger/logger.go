// Package logger owns the process-wide zerolog logger.
//
// main calls Init once; services and repositories take a child from
// Component so every entry names the part of the system that wrote it.
//
//	TRACE (-1) → DEBUG (0) → INFO (1) → WARN (2) → ERROR (3) → FATAL (4)
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	// Level is parsed with ParseLevel.
	Level string
	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is added to every entry as "service".
	Service string
}

var (
	mu          sync.RWMutex
	instance    zerolog.Logger
	once        sync.Once
	initialized bool
)

// Init builds the process logger and sets zerolog's global level. Later calls
// return the logger built by the first one until Reset.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		lvl := ParseLevel(opts.Level)
		zerolog.SetGlobalLevel(lvl)

		fields := zerolog.New(out).Level(lvl).With().Timestamp().Caller()
		if opts.Service != "" {
			fields = fields.Str("service", opts.Service)
		}

		mu.Lock()
		instance = fields.Logger()
		initialized = true
		mu.Unlock()
	})
	return Get()
}

// Get returns the process logger. It panics before Init.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		panic("logger: Get called before Init")
	}
	return instance
}

// Component returns a child of the singleton tagged with component=name.
// Before Init it returns a disabled logger so libraries and tests can call it
// freely.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		return zerolog.Nop()
	}
	return instance.With().Str("component", name).Logger()
}

// Reset forgets the process logger and restores the global level. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// ParseLevel maps a LOG_LEVEL value onto a zerolog level. It accepts the
// zerolog names plus "warning", ignores case and surrounding blanks, and
// falls back to info for anything it does not recognise. Levels below trace
// and the disabled/panic levels are not selectable.
func ParseLevel(s string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl < zerolog.TraceLevel || lvl > zerolog.FatalLevel || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
