package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the stream layout cannot be run,
	// such as mismatched input and output counts.
	ErrConfiguration = errors.New("invalid pipeline configuration")
	// ErrUnsupportedFormat is returned for an output format other than
	// piece or id.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// CheckPairs verifies that nIn inputs can be paired with nOut outputs. It is
// meant to run before any stream is opened.
func CheckPairs(nIn, nOut int) error {
	if nIn != nOut {
		return fmt.Errorf("%w: number of input and output paths should match (%d inputs, %d outputs)",
			ErrConfiguration, nIn, nOut)
	}

	if nIn == 0 {
		return fmt.Errorf("%w: at least one input and output is required", ErrConfiguration)
	}

	return nil
}
