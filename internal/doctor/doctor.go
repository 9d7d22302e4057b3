// Package doctor provides preflight checks for spmencode runs.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/example/go-spm-encode/internal/stream"
	"github.com/example/go-spm-encode/internal/text"
	"github.com/saintfish/chardet"
)

// sampleBytes is how much of each input the encoding check inspects.
const sampleBytes = 64 * 1024

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ModelFunc loads the segmentation model and returns its vocabulary size.
type ModelFunc func() (int, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// LoadModel loads the configured model. Nil skips the model check.
	LoadModel ModelFunc
	// Inputs are the configured input paths. "-" entries are skipped.
	Inputs []string
	// Outputs are the configured output paths. "-" entries are skipped.
	Outputs []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- stream pairing ---------------------------------------------------
	if len(cfg.Inputs) != len(cfg.Outputs) || len(cfg.Inputs) == 0 {
		res.fail(fmt.Sprintf("stream pairs: %d inputs, %d outputs", len(cfg.Inputs), len(cfg.Outputs)))
		fmt.Fprintf(w, "%s stream pairs: %d inputs, %d outputs\n", FailMark, len(cfg.Inputs), len(cfg.Outputs))
	} else {
		fmt.Fprintf(w, "%s stream pairs: %d\n", PassMark, len(cfg.Inputs))
	}

	// ---- model ------------------------------------------------------------
	if cfg.LoadModel == nil {
		fmt.Fprintf(w, "%s model: skipped\n", PassMark)
	} else {
		size, err := cfg.LoadModel()
		if err != nil {
			res.fail(fmt.Sprintf("model: %v", err))
			fmt.Fprintf(w, "%s model: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s model: %d pieces\n", PassMark, size)
		}
	}

	// ---- inputs -----------------------------------------------------------
	counts := make(map[string]int)
	for _, path := range cfg.Inputs {
		if path == stream.Stdio {
			fmt.Fprintf(w, "%s input stdin: skipped\n", PassMark)
			continue
		}

		n, err := CountLines(path)
		if err != nil {
			res.fail(fmt.Sprintf("input %q: %v", path, err))
			fmt.Fprintf(w, "%s input %s: %v\n", FailMark, path, err)

			continue
		}

		counts[path] = n

		if err := CheckEncoding(path); err != nil {
			res.fail(fmt.Sprintf("input %q: %v", path, err))
			fmt.Fprintf(w, "%s input %s: %v\n", FailMark, path, err)

			continue
		}

		fmt.Fprintf(w, "%s input %s: %d lines\n", PassMark, path, n)
	}

	if msg, ok := lineCountMismatch(cfg.Inputs, counts); ok {
		res.fail(msg)
		fmt.Fprintf(w, "%s %s\n", FailMark, msg)
	}

	// ---- outputs ----------------------------------------------------------
	for _, path := range cfg.Outputs {
		if path == stream.Stdio {
			fmt.Fprintf(w, "%s output stdout: skipped\n", PassMark)
			continue
		}

		if err := checkWritableDir(filepath.Dir(path)); err != nil {
			res.fail(fmt.Sprintf("output %q: %v", path, err))
			fmt.Fprintf(w, "%s output %s: %v\n", FailMark, path, err)
		} else {
			fmt.Fprintf(w, "%s output %s: writable\n", PassMark, path)
		}
	}

	return res
}

// CountLines returns the number of lines the encoder would read from path.
// Compressed inputs are counted after decompression.
func CountLines(path string) (int, error) {
	set, err := stream.OpenInputs([]string{path}, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = set.Close() }()

	sc := bufio.NewScanner(set.Readers()[0])
	sc.Buffer(make([]byte, 0, 64*1024), text.MaxLineBytes)
	sc.Split(text.ScanLines)

	n := 0
	for sc.Scan() {
		n++
	}

	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("%w: read %s: %w", stream.ErrStreamIO, path, err)
	}

	return n, nil
}

// CheckEncoding returns an error when the start of path is not valid UTF-8.
// The error names the charset the sample most likely uses.
func CheckEncoding(path string) error {
	set, err := stream.OpenInputs([]string{path}, nil)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	sample, err := io.ReadAll(io.LimitReader(set.Readers()[0], sampleBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", stream.ErrStreamIO, path, err)
	}

	sample = trimPartialRune(sample)
	if utf8.Valid(sample) {
		return nil
	}

	return fmt.Errorf("not valid UTF-8 (detected %s)", detectCharset(sample))
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off by the sample limit.
func trimPartialRune(b []byte) []byte {
	for k := 1; k <= utf8.UTFMax-1 && k <= len(b); k++ {
		if utf8.RuneStart(b[len(b)-k]) {
			if !utf8.FullRune(b[len(b)-k:]) {
				return b[:len(b)-k]
			}

			break
		}
	}

	return b
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "unknown charset"
	}

	return strings.ToLower(result.Charset)
}

// lineCountMismatch reports a failure when the counted inputs differ in
// length, since the encoder stops at the shortest input without notice.
func lineCountMismatch(paths []string, counts map[string]int) (string, bool) {
	minPath, maxPath := "", ""
	for _, p := range paths {
		n, ok := counts[p]
		if !ok {
			continue
		}

		if minPath == "" || n < counts[minPath] {
			minPath = p
		}

		if maxPath == "" || n > counts[maxPath] {
			maxPath = p
		}
	}

	if minPath == "" || counts[minPath] == counts[maxPath] {
		return "", false
	}

	return fmt.Sprintf("line counts differ: %s has %d lines, %s has %d; output would be truncated to %d rows",
		minPath, counts[minPath], maxPath, counts[maxPath], counts[minPath]), true
}

func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".spmencode-doctor-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}
