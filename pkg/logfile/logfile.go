// Package logfile loads whole firmware logs into memory with a size bound.
package logfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxSize bounds a single log when no explicit limit is configured.
const DefaultMaxSize int64 = 64 << 20

// ErrTooLarge is returned when a log exceeds the configured maximum size.
var ErrTooLarge = errors.New("log exceeds maximum size")

// Log is the full text of one log file.
type Log struct {
	// Path is the location the log was read from.
	Path string

	// Name is the base name of the file, as shown to users.
	Name string

	// Size is the number of bytes read.
	Size int64

	Text string
}

// HumanSize returns Size formatted for display.
func (l *Log) HumanSize() string {
	return HumanSize(l.Size, false, 1)
}

// Load reads the log at path. maxSize <= 0 means DefaultMaxSize.
func Load(ctx context.Context, path string, maxSize int64) (*Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	text, err := Read(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("reading log file %s: %w", path, err)
	}

	return &Log{
		Path: path,
		Name: filepath.Base(path),
		Size: int64(len(text)),
		Text: text,
	}, nil
}

// Read consumes r up to maxSize bytes. maxSize <= 0 means DefaultMaxSize.
func Read(r io.Reader, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var b strings.Builder
	n, err := io.Copy(&b, io.LimitReader(r, maxSize+1))
	if err != nil {
		return "", err
	}
	if n > maxSize {
		return "", fmt.Errorf("%w (%s)", ErrTooLarge, HumanSize(maxSize, false, 1))
	}
	return b.String(), nil
}
