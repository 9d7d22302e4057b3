// Package text holds the line-level text handling shared by the encoder:
// splitting input streams into lines and cleaning individual lines.
package text

import "bytes"

// MaxLineBytes bounds a single input line.
const MaxLineBytes = 64 << 20

// ScanLines is a bufio.SplitFunc that treats "\n", "\r\n" and a bare "\r"
// as line terminators. Terminators are not part of the returned token. A
// final line without a terminator is still returned.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		// "\r" at the end of the buffer may be the first half of "\r\n".
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}

		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}

		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
