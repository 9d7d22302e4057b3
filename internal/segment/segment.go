// Package segment turns raw text into SentencePiece subword units.
// The primary implementation wraps a pure-Go unigram SentencePiece encoder
// and exposes both the textual pieces and their vocabulary ids.
package segment

import "errors"

var (
	// ErrEmptyPath is returned when Load is called with an empty path.
	ErrEmptyPath = errors.New("segmenter model path must not be empty")
	// ErrModelLoad wraps every failure to load a segmentation model.
	ErrModelLoad = errors.New("load segmentation model")
)

// Segmenter splits text into subword units.
type Segmenter interface {
	// Pieces returns the ordered subword pieces of text.
	Pieces(text string) ([]string, error)
	// IDs returns the ordered vocabulary ids of text.
	IDs(text string) ([]int, error)
}
