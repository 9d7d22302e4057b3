// Package pipeline runs the row-synchronized encode and filter loop.
//
// N input streams are read in lock-step, one line from each per row. Every
// column is trimmed, segmented and checked against the token-count Bounds.
// A row is written to all N outputs only when every column is valid, so the
// outputs stay positionally aligned with each other.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/example/go-spm-encode/internal/segment"
	"github.com/example/go-spm-encode/internal/stream"
	"github.com/example/go-spm-encode/internal/text"
)

// DefaultProgressEvery is the row interval between progress notices.
const DefaultProgressEvery = 10000

// Options configures a Pipeline.
type Options struct {
	Format Format
	Bounds Bounds
	// ProgressEvery is the row interval between "processed N lines"
	// notices. Zero or negative selects DefaultProgressEvery.
	ProgressEvery int
	// Diag receives progress and summary lines. Nil discards them.
	Diag io.Writer
	// Logger receives debug events. Nil uses slog.Default().
	Logger *slog.Logger
}

// Pipeline encodes aligned rows with a Segmenter.
type Pipeline struct {
	seg  segment.Segmenter
	opts Options
}

// New returns a Pipeline that segments with seg.
func New(seg segment.Segmenter, opts Options) *Pipeline {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}

	if opts.Diag == nil {
		opts.Diag = io.Discard
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{seg: seg, opts: opts}
}

// Run reads inputs in lock-step until the first one is exhausted and writes
// accepted rows to the output with the same index. Lines left in longer
// inputs are ignored. The context is checked between rows; on cancellation
// the rows written so far are flushed and ctx.Err() is returned.
//
// Run never closes its readers or writers.
func (p *Pipeline) Run(ctx context.Context, inputs []io.Reader, outputs []io.Writer) (Stats, error) {
	var stats Stats

	if err := CheckPairs(len(inputs), len(outputs)); err != nil {
		return stats, err
	}

	scanners := scanInputs(inputs)
	writers := bufferWriters(outputs)

	lines := make([]string, len(inputs))
	columns := make([][]string, len(inputs))

	for {
		if err := ctx.Err(); err != nil {
			return stats, errors.Join(err, flushAll(writers))
		}

		ended, err := readRow(scanners, lines)
		if err != nil {
			return stats, errors.Join(err, flushAll(writers))
		}

		if ended >= 0 {
			p.opts.Logger.Debug("input exhausted", "stream", ended, "rows", stats.Rows)
			break
		}

		stats.Rows++

		ok, err := p.encodeRow(stats.Rows, lines, columns, &stats)
		if err != nil {
			return stats, errors.Join(err, flushAll(writers))
		}

		if ok {
			if err := writeRow(writers, columns); err != nil {
				return stats, errors.Join(err, flushAll(writers))
			}

			stats.Written++
		}

		if stats.Rows%p.opts.ProgressEvery == 0 {
			// Progress notices are best-effort.
			_, _ = fmt.Fprintf(p.opts.Diag, "processed %d lines\n", stats.Rows)
		}
	}

	if err := flushAll(writers); err != nil {
		return stats, err
	}

	if err := stats.Report(p.opts.Diag); err != nil {
		return stats, fmt.Errorf("write summary: %w", err)
	}

	return stats, nil
}

// encodeRow fills columns from lines and reports whether every column is
// valid. Every column is evaluated, even after an invalid one, so the
// counters see each column exactly once.
func (p *Pipeline) encodeRow(rowNum int, lines []string, columns [][]string, stats *Stats) (bool, error) {
	valid := 0

	for i, line := range lines {
		columns[i] = nil

		cleaned, err := text.Normalize(line)
		if errors.Is(err, text.ErrEmptyText) {
			stats.Empty++
			continue
		}

		tokens, err := p.opts.Format.encode(p.seg, cleaned)
		if err != nil {
			return false, fmt.Errorf("segment row %d column %d: %w", rowNum, i+1, err)
		}

		if !p.opts.Bounds.Valid(len(tokens)) {
			stats.Filtered++
			continue
		}

		columns[i] = tokens
		valid++
	}

	if valid < len(lines) {
		stats.Discarded += valid
		return false, nil
	}

	return true, nil
}

// readRow reads one line from every scanner into lines. It returns the index
// of the first exhausted scanner, or -1 when a full row was read.
func readRow(scanners []*bufio.Scanner, lines []string) (int, error) {
	for i, sc := range scanners {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return i, fmt.Errorf("%w: read input %d: %w", stream.ErrStreamIO, i+1, err)
			}

			return i, nil
		}

		lines[i] = sc.Text()
	}

	return -1, nil
}

func writeRow(writers []*bufio.Writer, columns [][]string) error {
	for i, w := range writers {
		if _, err := w.WriteString(strings.Join(columns[i], " ")); err != nil {
			return fmt.Errorf("%w: write output %d: %w", stream.ErrStreamIO, i+1, err)
		}

		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: write output %d: %w", stream.ErrStreamIO, i+1, err)
		}
	}

	return nil
}

// scanInputs wraps each input in a line scanner. Inputs that are the same
// reader, such as stdin given twice, share one scanner so consecutive
// columns take consecutive lines instead of racing on read-ahead.
func scanInputs(inputs []io.Reader) []*bufio.Scanner {
	scanners := make([]*bufio.Scanner, len(inputs))

	for i, r := range inputs {
		for j := 0; j < i; j++ {
			if sameStream(inputs[j], r) {
				scanners[i] = scanners[j]
				break
			}
		}

		if scanners[i] == nil {
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 0, 64*1024), text.MaxLineBytes)
			sc.Split(text.ScanLines)
			scanners[i] = sc
		}
	}

	return scanners
}

// bufferWriters wraps each output in a bufio.Writer. Outputs that are the
// same writer, such as stdout given twice, share one buffer so their lines
// keep row order.
func bufferWriters(outputs []io.Writer) []*bufio.Writer {
	writers := make([]*bufio.Writer, len(outputs))

	for i, w := range outputs {
		for j := 0; j < i; j++ {
			if sameStream(outputs[j], w) {
				writers[i] = writers[j]
				break
			}
		}

		if writers[i] == nil {
			writers[i] = bufio.NewWriter(w)
		}
	}

	return writers
}

// sameStream reports whether a and b hold the same comparable value.
// Non-comparable dynamic types are never shared.
func sameStream(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}

	return a == b
}

func flushAll(writers []*bufio.Writer) error {
	var errs []error

	for i, w := range writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("%w: flush output %d: %w", stream.ErrStreamIO, i+1, err))
		}
	}

	return errors.Join(errs...)
}
