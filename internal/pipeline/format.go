package pipeline

import (
	"fmt"
	"strconv"

	"github.com/example/go-spm-encode/internal/segment"
)

// Format selects how a column is rendered in the output.
type Format int

const (
	// FormatPiece writes subword pieces.
	FormatPiece Format = iota
	// FormatID writes vocabulary ids as decimal strings.
	FormatID
)

const (
	formatPieceName = "piece"
	formatIDName    = "id"
)

// ParseFormat maps a format name to a Format. Names match exactly; anything
// other than "piece" or "id" fails with ErrUnsupportedFormat.
func ParseFormat(raw string) (Format, error) {
	switch raw {
	case formatPieceName:
		return FormatPiece, nil
	case formatIDName:
		return FormatID, nil
	default:
		return 0, fmt.Errorf("%w %q (expected %s|%s)", ErrUnsupportedFormat, raw, formatPieceName, formatIDName)
	}
}

func (f Format) String() string {
	switch f {
	case FormatPiece:
		return formatPieceName
	case FormatID:
		return formatIDName
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// encode segments text and renders each token as an output string.
func (f Format) encode(seg segment.Segmenter, text string) ([]string, error) {
	switch f {
	case FormatPiece:
		return seg.Pieces(text)
	case FormatID:
		ids, err := seg.IDs(text)
		if err != nil {
			return nil, err
		}

		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = strconv.Itoa(id)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w %s", ErrUnsupportedFormat, f)
	}
}
