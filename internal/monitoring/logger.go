package monitoring

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// FileOptions controls rotation of the on-disk log.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// SetupFileLogging points the standard logger at a rotating file while
// still echoing to stderr. An empty path leaves logging untouched and
// returns a nil closer.
func SetupFileLogging(opts FileOptions) io.Closer {
	if opts.Path == "" {
		return nil
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 20
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 14
	}

	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lj))
	return lj
}
