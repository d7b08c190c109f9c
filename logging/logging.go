// Package logging sets up the zerolog logger shared by the commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger output
type Options struct {
	Out     io.Writer
	Format  string // "json" or console (anything else)
	Level   string // zerolog level name, info when empty or unknown
	Verbose bool   // forces debug level
}

// FromEnv reads LOGFMT and LOGLVL.
func FromEnv() Options {
	return Options{
		Out:    os.Stdout,
		Format: os.Getenv("LOGFMT"),
		Level:  os.Getenv("LOGLVL"),
	}
}

// IsTerminal reports whether w is a terminal (or a Cygwin pty).
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New builds a logger from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var logger zerolog.Logger
	if strings.EqualFold(opts.Format, "json") {
		logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !IsTerminal(out),
			TimeFormat: "15:04:05",
		}).With().Timestamp().Logger()
	}

	return logger.Level(level(opts))
}

func level(opts Options) zerolog.Level {
	if opts.Verbose {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Init configures the global logger from the environment and returns it.
func Init(verbose bool) zerolog.Logger {
	opts := FromEnv()
	opts.Verbose = verbose
	log.Logger = New(opts)
	return log.Logger
}
