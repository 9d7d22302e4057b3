package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when a line is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares one raw input line for segmentation.
// It trims surrounding whitespace and rejects empty or whitespace-only input.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}
