// Package stream opens the input and output handles of an encoding run.
//
// The path "-" names standard input or standard output. Those handles are
// borrowed: they are used but never closed. Every other path is a file owned
// by the returned Set and released by Set.Close. Files ending in .gz or .zst
// are transparently decompressed on read and compressed on write.
package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stdio is the path that selects standard input or standard output.
const Stdio = "-"

// ErrStreamIO wraps every open, read, write or close failure on a handle.
var ErrStreamIO = errors.New("stream i/o")

// Compression identifies the codec applied to a file by its extension.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// CompressionFor returns the codec implied by path's extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// handle is one opened stream. close is nil for borrowed handles.
type handle struct {
	name  string
	close func() error
}

// Set is an ordered group of opened input or output handles.
type Set struct {
	handles []handle
	readers []io.Reader
	writers []io.Writer
}

// Names returns the paths the set was opened from, in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.handles))
	for i, h := range s.handles {
		out[i] = h.name
	}

	return out
}

// Readers returns the input readers in path order.
func (s *Set) Readers() []io.Reader { return append([]io.Reader(nil), s.readers...) }

// Writers returns the output writers in path order.
func (s *Set) Writers() []io.Writer { return append([]io.Writer(nil), s.writers...) }

// Close releases every owned handle in reverse open order and joins the
// errors. Borrowed handles are left open. Close is safe to call twice.
func (s *Set) Close() error {
	var errs []error

	for i := len(s.handles) - 1; i >= 0; i-- {
		h := &s.handles[i]
		if h.close == nil {
			continue
		}

		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: close %s: %w", ErrStreamIO, h.name, err))
		}

		h.close = nil
	}

	return errors.Join(errs...)
}

// OpenInputs opens paths for reading. stdin backs every "-" entry, and
// repeated "-" entries share one reader so they consume alternate lines. On
// error the handles opened so far are closed.
func OpenInputs(paths []string, stdin io.Reader) (*Set, error) {
	set := &Set{}

	var sharedStdin io.Reader

	for _, p := range paths {
		if p == Stdio && sharedStdin != nil {
			set.handles = append(set.handles, handle{name: p})
			set.readers = append(set.readers, sharedStdin)

			continue
		}

		r, closeFn, err := openInput(p, stdin)
		if err != nil {
			_ = set.Close()
			return nil, err
		}

		r = stripBOM(r)
		if p == Stdio {
			sharedStdin = r
		}

		set.handles = append(set.handles, handle{name: p, close: closeFn})
		set.readers = append(set.readers, r)
	}

	return set, nil
}

// OpenOutputs creates or truncates paths for writing. stdout backs every
// "-" entry. On error the handles opened so far are closed.
func OpenOutputs(paths []string, stdout io.Writer) (*Set, error) {
	set := &Set{}

	for _, p := range paths {
		w, closeFn, err := openOutput(p, stdout)
		if err != nil {
			_ = set.Close()
			return nil, err
		}

		set.handles = append(set.handles, handle{name: p, close: closeFn})
		set.writers = append(set.writers, w)
	}

	return set, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == Stdio {
		if stdin == nil {
			return nil, nil, fmt.Errorf("%w: stdin reader is nil", ErrStreamIO)
		}

		return stdin, nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %w", ErrStreamIO, path, err)
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%w: open gzip %s: %w", ErrStreamIO, path, err)
		}

		return zr, closeAll(zr.Close, f.Close), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%w: open zstd %s: %w", ErrStreamIO, path, err)
		}

		return zr, closeAll(func() error { zr.Close(); return nil }, f.Close), nil
	default:
		return f, f.Close, nil
	}
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == Stdio {
		if stdout == nil {
			return nil, nil, fmt.Errorf("%w: stdout writer is nil", ErrStreamIO)
		}

		return stdout, nil, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create %s: %w", ErrStreamIO, path, err)
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		zw := gzip.NewWriter(f)
		return zw, closeAll(zw.Close, f.Close), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%w: create zstd %s: %w", ErrStreamIO, path, err)
		}

		return zw, closeAll(zw.Close, f.Close), nil
	default:
		return f, f.Close, nil
	}
}

// closeAll runs every fn in order and joins their errors, so an outer file
// is still closed when finalizing its compressor fails.
func closeAll(fns ...func() error) func() error {
	return func() error {
		var errs []error
		for _, fn := range fns {
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}

		return errors.Join(errs...)
	}
}

// stripBOM drops a leading UTF-8 byte order mark and passes everything else
// through untouched.
func stripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}
