package pipeline

import (
	"fmt"
	"io"
)

// Stats counts what a run did. Empty and Filtered are column-level: a row
// with two empty columns adds two to Empty.
type Stats struct {
	// Rows is the number of rows read from the inputs.
	Rows int
	// Written is the number of rows written to every output.
	Written int
	// Empty counts columns skipped because the trimmed line was empty.
	Empty int
	// Filtered counts columns whose token count fell outside the bounds.
	Filtered int
	// Discarded counts valid columns dropped because another column of the
	// same row was invalid.
	Discarded int
}

// Report writes the end-of-run summary lines to w.
func (s Stats) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "skipped %d empty lines\n", s.Empty); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "filtered %d lines\n", s.Filtered)

	return err
}
